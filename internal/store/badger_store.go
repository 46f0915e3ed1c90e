package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"cipherxfer/internal/domain"
)

const blobKeyPrefix = "blob/"

// BlobBadgerStore keeps blobs in a badger database. Each Put is its own
// transaction, which gives per-name mutual exclusion.
type BlobBadgerStore struct {
	db *badger.DB
}

// BadgerConfig configures OpenBlobBadgerStore.
type BadgerConfig struct {
	Path     string // empty with InMemory set opens an in-memory database
	InMemory bool
	Logger   logrus.FieldLogger
}

// OpenBlobBadgerStore opens (or creates) the database described by cfg.
func OpenBlobBadgerStore(cfg BadgerConfig) (*BlobBadgerStore, error) {
	path := cfg.Path
	if cfg.InMemory {
		path = ""
	}
	opts := badger.DefaultOptions(path).
		WithInMemory(cfg.InMemory).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	if cfg.Logger != nil {
		cfg.Logger.WithFields(logrus.Fields{
			"path":      cfg.Path,
			"in_memory": cfg.InMemory,
		}).Info("opened badger blob store")
	}
	return &BlobBadgerStore{db: db}, nil
}

// Put stores data under name, replacing any previous blob.
func (s *BlobBadgerStore) Put(name string, data []byte) error {
	if err := validName(name); err != nil {
		return fmt.Errorf("put %q: %w", name, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(blobKeyPrefix+name), data)
	})
}

// Get returns the blob stored under name.
func (s *BlobBadgerStore) Get(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, fmt.Errorf("get %q: %w", name, err)
	}
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobKeyPrefix + name))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("get %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close flushes and closes the database.
func (s *BlobBadgerStore) Close() error {
	return s.db.Close()
}

// Compile-time assertion that BlobBadgerStore implements domain.BlobStore.
var _ domain.BlobStore = (*BlobBadgerStore)(nil)
