package knowledge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore holds documents in process memory. Used in tests and in
// deployments without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert stores a copy of doc and returns its generated id.
func (s *MemoryStore) Insert(_ context.Context, doc Document) (string, error) {
	if doc.Content == "" {
		return "", ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now().UTC()
	s.docs = append(s.docs, doc)
	return doc.ID, nil
}

// Search ranks all stored documents against the query embedding.
func (s *MemoryStore) Search(_ context.Context, embedding []float64, limit int) ([]Match, error) {
	s.mu.RLock()
	docs := make([]Document, len(s.docs))
	copy(docs, s.docs)
	s.mu.RUnlock()

	return Rank(docs, embedding, limit), nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
