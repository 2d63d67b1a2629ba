package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketMacros = []byte("macros")
	keyDocument  = []byte("document")
)

// BoltStore keeps the document in a BoltDB file.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens (or creates) the BoltDB file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMacros)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db, path: path}, nil
}

// Load reads the document.
func (s *BoltStore) Load() ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMacros).Get(keyDocument)
		// Bolt values are only valid for the life of the transaction.
		data = append([]byte{}, v...)
		return nil
	})
	return data, err
}

// Save writes the document in a single transaction.
func (s *BoltStore) Save(data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMacros).Put(keyDocument, data)
	})
}

// Location returns the database path.
func (s *BoltStore) Location() string { return s.path }

// Kind returns "bolt".
func (s *BoltStore) Kind() string { return "bolt" }

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
