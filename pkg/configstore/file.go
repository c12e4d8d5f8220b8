package configstore

import (
	"context"
	"sync"
)

// FileStore serves flags seeded from configuration at startup. It is
// read-only: Set always returns ErrReadOnly.
type FileStore struct {
	flags map[string]string
}

// NewFileStore creates a FileStore over the given seed flags.
func NewFileStore(flags map[string]string) *FileStore {
	cp := make(map[string]string, len(flags))
	for k, v := range flags {
		cp[k] = v
	}
	return &FileStore{flags: cp}
}

// Get returns the seeded value for key, or ErrNotFound.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.flags[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set returns ErrReadOnly because file-seeded flags are immutable.
func (*FileStore) Set(_ context.Context, _, _ string) error {
	return ErrReadOnly
}

// Mode returns "file".
func (*FileStore) Mode() string {
	return "file"
}

// MemoryStore holds flags in process memory. Used in tests and in
// deployments without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]string
}

// NewMemoryStore creates a MemoryStore with the given seed flags.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	flags := make(map[string]string, len(seed))
	for k, v := range seed {
		flags[k] = v
	}
	return &MemoryStore{flags: flags}
}

// Get returns the value for key, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.flags[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set writes the value for key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flags[key] = value
	return nil
}

// Mode returns "memory".
func (*MemoryStore) Mode() string {
	return "memory"
}

// Verify interface compliance.
var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
