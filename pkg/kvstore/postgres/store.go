// Package postgres provides PostgreSQL storage for session buffer mirrors.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opaline/shopassist/pkg/kvstore"
)

// Store implements kvstore.Store using the session_buffers table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL mirror store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Put upserts the payload for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO session_buffers (session_id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET payload = $2, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("upserting session buffer: %w", err)
	}
	return nil
}

// Get retrieves the payload for key. Returns nil, nil when absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT payload FROM session_buffers WHERE session_id = $1`

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session buffer: %w", err)
	}
	return payload, nil
}

// Delete removes the payload for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM session_buffers WHERE session_id = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("deleting session buffer: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ kvstore.Store = (*Store)(nil)
