// Package configstore provides storage backends for runtime configuration
// flags. Flags are small named text values an operator can read and flip
// without redeploying, such as the assistant system prompt or feature
// toggles. It supports two modes: file (read-only, flags seeded from YAML)
// and database (read-write, flags persisted in PostgreSQL).
package configstore

import (
	"context"
	"errors"
)

// SystemPromptKey names the flag holding the assistant system prompt.
const SystemPromptKey = "SYSTEM_PROMPT"

// Store errors.
var (
	// ErrNotFound is returned when a flag key does not exist.
	ErrNotFound = errors.New("config flag not found")
	// ErrReadOnly is returned when a write is attempted on a read-only store.
	ErrReadOnly = errors.New("config store is read-only")
)

// Store provides flag storage and retrieval.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes the value for key, creating it if absent.
	Set(ctx context.Context, key, value string) error
	// Mode returns the store mode: "file", "memory" or "database".
	Mode() string
}
