// Package boltstore persists the session record in a local bbolt database.
// It is the default durable store for non-browser targets.
package boltstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/mercfleet/fleet-client-go/session"
)

const (
	bucketName = "session"
	recordKey  = "current"
)

var _ session.Store = (*Store)(nil)

// Store wraps a bbolt database holding the single session record.
type Store struct {
	db *bolt.DB
}

// Open initializes the database file and ensures the session bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] MkdirAll")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Open] bolt.Open")
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[boltstore.Open] CreateBucketIfNotExists")
	}

	return &Store{db: db}, nil
}

func (s *Store) Get() (*session.Session, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var record *session.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		payload := tx.Bucket([]byte(bucketName)).Get([]byte(recordKey))
		if payload == nil {
			return nil
		}
		record = &session.Session{}
		return json.Unmarshal(payload, record)
	})
	if err != nil {
		return nil, errors.Wrap(err, "[boltstore.Get] db.View")
	}
	return record, nil
}

func (s *Store) Set(record *session.Session) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "[boltstore.Set] json.Marshal")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(recordKey), payload)
	})
}

func (s *Store) Remove() error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(recordKey))
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
