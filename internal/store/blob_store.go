package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cipherxfer/internal/domain"
)

// BlobFileStore keeps one file per name under dir.
//
// Writes go through a temp file and rename, and writers of the same name are
// serialised by a per-name lock; the last completed writer wins.
type BlobFileStore struct {
	dir   string
	locks keyedMutex
}

// NewBlobFileStore returns a BlobFileStore rooted at dir, creating it if needed.
func NewBlobFileStore(dir string) (*BlobFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &BlobFileStore{dir: dir}, nil
}

// Put stores data under name, replacing any previous blob.
func (s *BlobFileStore) Put(name string, data []byte) error {
	if err := validName(name); err != nil {
		return fmt.Errorf("put %q: %w", name, err)
	}
	unlock := s.locks.lock(name)
	defer unlock()

	return writeFile(filepath.Join(s.dir, name), data, 0o644)
}

// Get returns the blob stored under name.
func (s *BlobFileStore) Get(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, fmt.Errorf("get %q: %w", name, err)
	}
	unlock := s.locks.lock(name)
	defer unlock()

	path := filepath.Join(s.dir, name)
	if !exists(path) {
		return nil, fmt.Errorf("get %q: %w", name, domain.ErrNotFound)
	}
	return os.ReadFile(path)
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Compile-time assertion that BlobFileStore implements domain.BlobStore.
var _ domain.BlobStore = (*BlobFileStore)(nil)
