package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for local development and tests.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations []Conversation
	messages      map[string][]Message // keyed by conversation id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string][]Message)}
}

// Save stores the conversation and its messages.
func (s *MemoryStore) Save(_ context.Context, sessionID string, messages []Message, startedAt, endedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.conversations = append(s.conversations, Conversation{
		ID:           id,
		SessionID:    sessionID,
		StartedAt:    startedAt,
		EndedAt:      endedAt,
		MessageCount: len(messages),
	})
	s.messages[id] = append([]Message(nil), messages...)
	return id, nil
}

// List returns conversations matching the filter, newest first.
func (s *MemoryStore) List(_ context.Context, f Filter) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if f.SessionID != "" && c.SessionID != f.SessionID {
			continue
		}
		if f.From != nil && c.StartedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && c.StartedAt.After(*f.To) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Transcript returns all messages persisted for a session in creation order.
func (s *MemoryStore) Transcript(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Message
	for _, c := range s.conversations {
		if c.SessionID != sessionID {
			continue
		}
		out = append(out, s.messages[c.ID]...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

// Verify interface compliance.
var _ Store = (*MemoryStore)(nil)
