package store

import (
	"go.etcd.io/bbolt"
)

func filterKey(level, className string) []byte {
	return []byte(level + "/" + className)
}

// ClassFilters returns the ordered driver list for a (level, class) pair. A
// pair that was never written yields an empty list.
func (s *Store) ClassFilters(level, className string) (drivers []string, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(classFiltersBucket)
		if bucket == nil {
			return nil
		}
		raw := bucket.Get(filterKey(level, className))
		if raw == nil {
			return nil
		}
		return decodeValue(raw, &drivers)
	})
	return
}

func (s *Store) SetClassFilters(level, className string, drivers []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := getBucket(tx, classFiltersBucket)
		if err != nil {
			return err
		}
		key := filterKey(level, className)
		if len(drivers) == 0 {
			return bucket.Delete(key)
		}
		raw, err := encodeValue(drivers)
		if err != nil {
			return err
		}
		return bucket.Put(key, raw)
	})
}
