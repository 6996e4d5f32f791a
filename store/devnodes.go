package store

import (
	"go.etcd.io/bbolt"
)

// DevNode is one registered device node, keyed by its instance id.
type DevNode struct {
	InstanceID  string
	HardwareIDs []string
	Class       string
	Driver      string
}

func (s *Store) DevNodes() (nodes []DevNode, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(devNodesBucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, raw []byte) error {
			var node DevNode
			if err := decodeValue(raw, &node); err != nil {
				return err
			}
			nodes = append(nodes, node)
			return nil
		})
	})
	return
}

func (s *Store) PutDevNode(node DevNode) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, devNodesBucket)
		if err != nil {
			return err
		}
		raw, err := encodeValue(node)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(node.InstanceID), raw)
	})
}

func (s *Store) DeleteDevNode(instanceID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, devNodesBucket)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(instanceID))
	})
}

// NextDevNodeID reserves the next value of the devnode id sequence.
func (s *Store) NextDevNodeID() (id uint64, err error) {
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, devNodesBucket)
		if err != nil {
			return err
		}
		id, err = bucket.NextSequence()
		return err
	})
	return
}
