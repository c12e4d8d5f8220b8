// Package actor serializes all mutations to a session's message history.
// Each session id is owned by exactly one in-process session record guarded
// by its own mutex, so appends for the same session are totally ordered while
// distinct sessions proceed in parallel. The full buffer is mirrored to
// durable key-value storage on every append; on a cold lookup the buffer is
// rehydrated from the mirror, so a process restart does not lose history.
package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opaline/shopassist/pkg/conversation"
	"github.com/opaline/shopassist/pkg/kvstore"
)

// FlushThreshold is the buffer length past which the partial-flush hook
// fires on append.
const FlushThreshold = 50

// Validation errors returned by Append.
var (
	ErrEmptySessionID = errors.New("session id must not be empty")
	ErrInvalidRole    = errors.New("role must be user or assistant")
	ErrEmptyContent   = errors.New("content must not be empty")
)

// FlushStrategy is invoked when a session's buffer length exceeds
// FlushThreshold. Implementations may truncate, compact, or eagerly persist
// the buffer. Errors are logged by the manager, never surfaced to callers.
type FlushStrategy interface {
	OnThresholdExceeded(ctx context.Context, sessionID string, buffer []conversation.Message) error
}

// NoopFlush ignores the threshold. This is the default: the hook exists to
// bound memory for very long sessions, and truncation policy is deliberately
// deferred until a real session exceeds the threshold in production.
type NoopFlush struct{}

// OnThresholdExceeded does nothing.
func (NoopFlush) OnThresholdExceeded(context.Context, string, []conversation.Message) error {
	return nil
}

// mirrorState is the JSON payload mirrored to the durable store. It carries
// everything needed to rebuild a session after restart.
type mirrorState struct {
	SessionID string                 `json:"session_id"`
	StartedAt time.Time              `json:"started_at"`
	Messages  []conversation.Message `json:"messages"`
}

// session is the single-writer state for one session id. All field access
// happens under mu.
type session struct {
	mu        sync.Mutex
	loaded    bool
	ended     bool
	saved     bool
	convID    string
	startedAt time.Time
	messages  []conversation.Message
}

// Manager owns all live sessions. The sessions map is guarded by mu; each
// session is guarded by its own mutex, so the map lock is never held across
// storage calls.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	mirror kvstore.Store
	store  conversation.Store
	flush  FlushStrategy
	log    *slog.Logger
	clock  func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithFlushStrategy sets the partial-flush hook invoked past FlushThreshold.
func WithFlushStrategy(f FlushStrategy) Option {
	return func(m *Manager) { m.flush = f }
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// NewManager creates a session manager mirroring buffers to mirror and
// flushing ended sessions to store.
func NewManager(mirror kvstore.Store, store conversation.Store, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*session),
		mirror:   mirror,
		store:    store,
		flush:    NoopFlush{},
		log:      slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup returns the live session record for id, creating an unloaded one if
// none exists.
func (m *Manager) lookup(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		s = &session{}
		m.sessions[id] = s
	}
	return s
}

// evict removes s from the map if it is still the record for id. A newer
// record for the same id is left alone.
func (m *Manager) evict(id string, s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[id] == s {
		delete(m.sessions, id)
	}
}

// acquire returns the session for id with its mutex held, rehydrating from
// the mirror on first access. Ended records are evicted and replaced with a
// fresh one, so a session id is reusable after End.
func (m *Manager) acquire(ctx context.Context, id string) (*session, error) {
	for {
		s := m.lookup(id)
		s.mu.Lock()
		if s.ended {
			s.mu.Unlock()
			m.evict(id, s)
			continue
		}
		if !s.loaded {
			if err := m.rehydrate(ctx, id, s); err != nil {
				s.mu.Unlock()
				return nil, err
			}
		}
		return s, nil
	}
}

// rehydrate loads the durable mirror into s. Called with s.mu held. An
// absent mirror means a brand-new session.
func (m *Manager) rehydrate(ctx context.Context, id string, s *session) error {
	payload, err := m.mirror.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("reading session mirror: %w", err)
	}
	if payload != nil {
		var st mirrorState
		if err := json.Unmarshal(payload, &st); err != nil {
			return fmt.Errorf("decoding session mirror: %w", err)
		}
		s.startedAt = st.StartedAt
		s.messages = st.Messages
	}
	s.loaded = true
	return nil
}

// mirrorPut writes the session's current state to the durable store. Called
// with s.mu held.
func (m *Manager) mirrorPut(ctx context.Context, id string, s *session) error {
	payload, err := json.Marshal(mirrorState{
		SessionID: id,
		StartedAt: s.startedAt,
		Messages:  s.messages,
	})
	if err != nil {
		return fmt.Errorf("encoding session mirror: %w", err)
	}
	if err := m.mirror.Put(ctx, id, payload); err != nil {
		return fmt.Errorf("writing session mirror: %w", err)
	}
	return nil
}

// Append adds one message to the session's transcript with a server-assigned
// timestamp. The updated buffer is mirrored durably before Append returns;
// if the mirror write fails the append is undone and the error returned, so
// memory and durable state never diverge. Appending to an ended or unknown
// session id starts a fresh session.
func (m *Manager) Append(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if !conversation.ValidRole(role) {
		return ErrInvalidRole
	}
	if content == "" {
		return ErrEmptyContent
	}

	s, err := m.acquire(ctx, sessionID)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	// A saved-but-not-retired session (End persisted the buffer, then the
	// mirror delete failed) starts over as a fresh session here.
	if s.saved {
		s.saved = false
		s.convID = ""
	}

	now := m.clock().UTC()
	firstMessage := len(s.messages) == 0 && s.startedAt.IsZero()
	if firstMessage {
		s.startedAt = now
	}
	s.messages = append(s.messages, conversation.Message{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})

	if err := m.mirrorPut(ctx, sessionID, s); err != nil {
		s.messages = s.messages[:len(s.messages)-1]
		if firstMessage {
			s.startedAt = time.Time{}
		}
		return err
	}

	if len(s.messages) > FlushThreshold {
		if err := m.flush.OnThresholdExceeded(ctx, sessionID, s.messages); err != nil {
			m.log.Warn("partial flush hook failed",
				"session_id", sessionID,
				"buffer_len", len(s.messages),
				"error", err)
		}
	}
	return nil
}

// End flushes the session to the relational store as one transaction, clears
// the buffer, deletes the durable mirror, and retires the session record.
// Every End call produces exactly one Conversation row: ending an unknown or
// already-ended session id records a fresh empty conversation rather than
// erroring, matching the write-once model where a second End is a new
// (empty) session under the same id. On persistence failure nothing is
// cleared, so a retry loses no messages. A mirror delete failure is also an
// error: the session is not retired until the mirror is gone, so the stale
// mirror cannot resurrect an already-persisted transcript, and the save runs
// at most once per ended buffer — a retried End only retries the delete.
func (m *Manager) End(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrEmptySessionID
	}

	s, err := m.acquire(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	if !s.saved {
		endedAt := m.clock().UTC()
		startedAt := s.startedAt
		if startedAt.IsZero() {
			startedAt = endedAt
		}

		convID, err := m.store.Save(ctx, sessionID, s.messages, startedAt, endedAt)
		if err != nil {
			return "", fmt.Errorf("persisting conversation: %w", err)
		}
		s.convID = convID
		s.saved = true
		s.messages = nil
		s.startedAt = time.Time{}
	}

	if err := m.mirror.Delete(ctx, sessionID); err != nil {
		return "", fmt.Errorf("deleting session mirror: %w", err)
	}

	s.ended = true
	m.evict(sessionID, s)
	return s.convID, nil
}

// Buffer returns a copy of the session's current in-memory transcript,
// rehydrating from the mirror if needed. An unknown session yields an empty
// slice.
func (m *Manager) Buffer(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	s, err := m.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]conversation.Message, len(s.messages))
	copy(out, s.messages)
	return out, nil
}
