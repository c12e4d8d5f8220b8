// Package postgres provides PostgreSQL storage for knowledge documents.
// Embeddings live in a jsonb column and similarity ranking happens in
// process over a bounded candidate set, which keeps the schema free of any
// vector extension.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/opaline/shopassist/pkg/knowledge"
)

// candidateLimit bounds how many recent documents one search loads for
// in-process ranking.
const candidateLimit = 500

// Store implements knowledge.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL knowledge store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert stores the document and returns its generated id.
func (s *Store) Insert(ctx context.Context, doc knowledge.Document) (string, error) {
	if doc.Content == "" {
		return "", knowledge.ErrEmptyContent
	}

	embedding, err := json.Marshal(doc.Embedding)
	if err != nil {
		return "", fmt.Errorf("encoding embedding: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO knowledge_documents (id, title, content, tags, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	if _, err := s.db.ExecContext(ctx, query, id, doc.Title, doc.Content, pq.Array(doc.Tags), embedding); err != nil {
		return "", fmt.Errorf("inserting knowledge document: %w", err)
	}
	return id, nil
}

// Search loads the most recent documents and ranks them against the query
// embedding in process, best first.
func (s *Store) Search(ctx context.Context, embedding []float64, limit int) ([]knowledge.Match, error) {
	query := `
		SELECT id, title, content, tags, embedding, created_at
		FROM knowledge_documents
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []knowledge.Document
	for rows.Next() {
		var (
			d        knowledge.Document
			tags     pq.StringArray
			embedRaw []byte
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &tags, &embedRaw, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge document: %w", err)
		}
		d.Tags = tags
		if err := json.Unmarshal(embedRaw, &d.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding for document %s: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating knowledge documents: %w", err)
	}

	return knowledge.Rank(docs, embedding, limit), nil
}

// Verify interface compliance.
var _ knowledge.Store = (*Store)(nil)
