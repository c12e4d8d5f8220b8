// Package postgres provides a PostgreSQL-backed config flag store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opaline/shopassist/pkg/configstore"
)

// Store persists config flags in the config_flags table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL flag store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key, or configstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config_flags WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", configstore.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading config flag: %w", err)
	}
	return value, nil
}

// Set upserts the value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO config_flags (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("upserting config flag: %w", err)
	}
	return nil
}

// Mode returns "database".
func (*Store) Mode() string {
	return "database"
}

// Verify interface compliance.
var _ configstore.Store = (*Store)(nil)
