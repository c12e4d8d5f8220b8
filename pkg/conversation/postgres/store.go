// Package postgres provides PostgreSQL storage for conversations.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/opaline/shopassist/pkg/conversation"
)

const defaultListLimit = 100

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements conversation.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL conversation store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save persists the conversation row and all message rows in one
// transaction. A failure at any point rolls the whole write back.
func (s *Store) Save(ctx context.Context, sessionID string, messages []conversation.Message, startedAt, endedAt time.Time) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning conversation transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()

	insertConv := `
		INSERT INTO conversations (id, session_id, started_at, ended_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, insertConv, id, sessionID, startedAt, endedAt); err != nil {
		return "", fmt.Errorf("inserting conversation: %w", err)
	}

	insertMsg := `
		INSERT INTO messages (conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	for _, m := range messages {
		if _, err := tx.ExecContext(ctx, insertMsg, id, m.Role, m.Content, m.CreatedAt); err != nil {
			return "", fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing conversation: %w", err)
	}
	return id, nil
}

// List returns conversations matching the filter, newest first.
func (s *Store) List(ctx context.Context, f conversation.Filter) ([]conversation.Conversation, error) {
	qb := psq.Select(
		"c.id", "c.session_id", "c.started_at", "c.ended_at",
		"(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count",
	).From("conversations c")

	if f.SessionID != "" {
		qb = qb.Where(sq.Eq{"c.session_id": f.SessionID})
	}
	if f.From != nil {
		qb = qb.Where(sq.GtOrEq{"c.started_at": *f.From})
	}
	if f.To != nil {
		qb = qb.Where(sq.LtOrEq{"c.started_at": *f.To})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	qb = qb.OrderBy("c.started_at DESC").Limit(uint64(limit))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building conversation query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	conversations := make([]conversation.Conversation, 0, limit)
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.SessionID, &c.StartedAt, &c.EndedAt, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversation rows: %w", err)
	}
	return conversations, nil
}

// Transcript returns all messages for a session in creation order.
func (s *Store) Transcript(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	query := `
		SELECT m.role, m.content, m.created_at
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.session_id = $1
		ORDER BY m.id
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	defer func() { _ = rows.Close() }()

	messages := make([]conversation.Message, 0)
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}
	return messages, nil
}

// Verify interface compliance.
var _ conversation.Store = (*Store)(nil)
