package store

import (
	"github.com/usbip-go/usbvhci/config"
	"go.etcd.io/bbolt"
)

func persistentKey(host, busID string) []byte {
	return []byte(busID + "@" + host)
}

func (s *Store) PersistentDevices() (devices []config.Device, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(persistentBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, raw []byte) error {
			var device config.Device
			if err := decodeValue(raw, &device); err != nil {
				return err
			}
			devices = append(devices, device)
			return nil
		})
	})
	return
}

func (s *Store) PutPersistent(device config.Device) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, persistentBucket)
		if err != nil {
			return err
		}
		raw, err := encodeValue(device)
		if err != nil {
			return err
		}
		return bucket.Put(persistentKey(device.Host, device.BusID), raw)
	})
}

func (s *Store) DeletePersistent(host, busID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, persistentBucket)
		if err != nil {
			return err
		}
		return bucket.Delete(persistentKey(host, busID))
	})
}
