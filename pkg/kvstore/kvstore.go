// Package kvstore provides the durable per-key storage behind the session
// actor. The actor mirrors its full message buffer here on every append so
// an actor restart or instance eviction does not lose history: the durable
// value is the source of truth, the in-memory buffer a cache of it.
package kvstore

import (
	"context"
	"sync"
)

// Store is a durable key-value store. Get returns nil, nil when the key is
// absent.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore implements Store with an in-process map. Used in tests and in
// deployments without a database; it is durable only for the process
// lifetime.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Put stores a copy of value under key.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[key] = cp
	return nil
}

// Get retrieves the value for key. Returns nil, nil when absent.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
