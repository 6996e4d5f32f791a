package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"path"

	"github.com/usbip-go/usbvhci/utils"
	"go.etcd.io/bbolt"
)

const DBPath = "db"

var BucketNotFound = errors.New("bucket not found")

var (
	classFiltersBucket = []byte("classfilters")
	devNodesBucket     = []byte("devnodes")
	persistentBucket   = []byte("persistent")
)

type Store struct {
	db *bbolt.DB
}

func GetDBPath() string {
	return path.Join(utils.GetSubFolder(DBPath), "store.db")
}

func Open() (*Store, error) {
	return OpenPath(GetDBPath())
}

func OpenPath(filePath string) (*Store, error) {
	db, err := bbolt.Open(filePath, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func getBucket(tx *bbolt.Tx, name []byte) (bucket *bbolt.Bucket, err error) {
	if tx.Writable() {
		bucket, err = tx.CreateBucketIfNotExists(name)
	} else {
		bucket = tx.Bucket(name)
		if bucket == nil {
			err = BucketNotFound
		}
	}
	return
}

func encodeValue(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(raw []byte, value interface{}) error {
	decoder := gob.NewDecoder(bytes.NewBuffer(raw))
	return decoder.Decode(value)
}
