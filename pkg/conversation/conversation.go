// Package conversation defines the persisted conversation model and the
// Store interface for the relational write and read paths. A Conversation is
// created exactly once, when a session ends, from the session's full message
// sequence; it is never updated afterwards.
package conversation

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry. Append-only and immutable once written.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the persisted form of an ended session.
type Conversation struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	MessageCount int       `json:"message_count"`
}

// Filter selects conversations on the read path. Zero fields are ignored.
type Filter struct {
	SessionID string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// Store is the relational persistence boundary. Save must be transactional:
// either the conversation row and all its message rows are visible, or none
// are.
type Store interface {
	// Save persists one conversation with its messages and returns the
	// surrogate conversation id. Called exactly once per session end, also
	// for sessions with zero messages.
	Save(ctx context.Context, sessionID string, messages []Message, startedAt, endedAt time.Time) (string, error)

	// List returns conversations matching the filter, newest first.
	List(ctx context.Context, f Filter) ([]Conversation, error)

	// Transcript returns all messages persisted for a session id in creation
	// order. An unknown session yields an empty slice, not an error.
	Transcript(ctx context.Context, sessionID string) ([]Message, error)
}

// ValidRole reports whether role is one of the accepted message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
