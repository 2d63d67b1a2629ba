// Package storage persists the macro document as an opaque byte blob.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store holds the raw macro document.
type Store interface {
	// Load returns the stored document. A store that has never been written
	// returns an empty document and no error.
	Load() ([]byte, error)
	// Save replaces the stored document atomically.
	Save(data []byte) error
	// Location describes where the document lives.
	Location() string
	// Kind names the backend ("file", "bolt", "memory").
	Kind() string
}

// FileStore keeps the document in a plain text file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore and ensures the parent directory exists.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create macro directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the macro file.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the macro file, so readers never observe a partial write.
func (s *FileStore) Save(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// Location returns the file path.
func (s *FileStore) Location() string { return s.path }

// Kind returns "file".
func (s *FileStore) Kind() string { return "file" }

// MemoryStore keeps the document in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
	// FailSave makes Save return an error, for exercising failure paths.
	FailSave error
}

// NewMemoryStore creates a MemoryStore seeded with content.
func NewMemoryStore(content string) *MemoryStore {
	return &MemoryStore{data: []byte(content)}
}

// Load returns a copy of the stored document.
func (s *MemoryStore) Load() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.data...), nil
}

// Save replaces the stored document.
func (s *MemoryStore) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.data = append([]byte(nil), data...)
	return nil
}

// Set replaces the document as an external editor would.
func (s *MemoryStore) Set(content string) {
	s.mu.Lock()
	s.data = []byte(content)
	s.mu.Unlock()
}

// Location returns "memory".
func (s *MemoryStore) Location() string { return "memory" }

// Kind returns "memory".
func (s *MemoryStore) Kind() string { return "memory" }

// ErrUnknownBackend indicates an unsupported storage kind in the configuration.
var ErrUnknownBackend = errors.New("unknown macro storage backend")

// Open returns the store selected by kind. Callers should close stores that
// implement io.Closer.
func Open(kind, path, boltPath string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFileStore(path)
	case "bolt":
		return NewBoltStore(boltPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}
