// Package storage persists captured frames in a bbolt file, one bucket per
// category, keyed by a per-bucket sequence.
package storage

import (
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when no blob exists under the requested id.
var ErrNotFound = errors.New("item not found")

// Categories known to the store.
var Categories = []string{"photos", "videos"}

// Item is one stored blob.
type Item struct {
	ID   uint64
	Blob []byte
}

// Store is a key/value blob store. It is safe for concurrent use.
type Store struct {
	db     *bolt.DB
	logger *logrus.Entry
}

// Open opens or creates the store file and makes sure every category exists.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, category := range Categories {
			if _, err := tx.CreateBucketIfNotExists([]byte(category)); err != nil {
				return errors.Wrapf(err, "create bucket %s", category)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger.WithField("store", path)}
	s.logger.Debug("Store opened")
	return s, nil
}

func key(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func bucket(tx *bolt.Tx, category string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(category))
	if b == nil {
		return nil, errors.Errorf("unknown category %q", category)
	}
	return b, nil
}

// Save stores blob and returns its id. Ids within a category increase
// monotonically and are never reused.
func (s *Store) Save(category string, blob []byte) (uint64, error) {
	if len(blob) == 0 {
		return 0, errors.New("save: empty blob")
	}

	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, category)
		if err != nil {
			return err
		}
		if id, err = b.NextSequence(); err != nil {
			return err
		}
		return b.Put(key(id), blob)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "save %s", category)
	}

	s.logger.WithFields(logrus.Fields{
		"category": category,
		"id":       id,
		"bytes":    len(blob),
	}).Info("Item saved")
	return id, nil
}

// List returns every item of category in id order.
func (s *Store) List(category string) ([]Item, error) {
	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, category)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			items = append(items, Item{
				ID:   binary.BigEndian.Uint64(k),
				Blob: append([]byte(nil), v...),
			})
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", category)
	}
	return items, nil
}

// Get returns the blob stored under id.
func (s *Store) Get(category string, id uint64) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, category)
		if err != nil {
			return err
		}
		v := b.Get(key(id))
		if v == nil {
			return ErrNotFound
		}
		blob = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get %s/%d", category, id)
	}
	return blob, nil
}

// Delete removes the item stored under id.
func (s *Store) Delete(category string, id uint64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, category)
		if err != nil {
			return err
		}
		if b.Get(key(id)) == nil {
			return ErrNotFound
		}
		return b.Delete(key(id))
	})
	if err != nil {
		return errors.Wrapf(err, "delete %s/%d", category, id)
	}

	s.logger.WithFields(logrus.Fields{"category": category, "id": id}).Info("Item deleted")
	return nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}
