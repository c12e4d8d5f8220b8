// Package knowledge stores product and store knowledge documents with
// embedding vectors and retrieves them by semantic similarity. Embeddings
// are produced by a collaborator behind the Embedder interface; the store
// only ranks numeric vectors and never interprets them.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrEmptyContent is returned when a document with no content is inserted.
var ErrEmptyContent = errors.New("document content must not be empty")

// Document is one stored knowledge entry.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	Embedding []float64 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is a document scored against a query embedding.
type Match struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Store persists documents and ranks them against a query vector.
type Store interface {
	// Insert stores a document and returns its id.
	Insert(ctx context.Context, doc Document) (string, error)
	// Search returns up to limit documents ranked by similarity to the
	// query embedding, best first.
	Search(ctx context.Context, embedding []float64, limit int) ([]Match, error)
}

// Service combines an embedder and a store into the insert and query
// operations the tool layer exposes.
type Service struct {
	embedder Embedder
	store    Store
}

// NewService creates a knowledge service.
func NewService(embedder Embedder, store Store) *Service {
	return &Service{embedder: embedder, store: store}
}

// Insert embeds the document content and stores it.
func (s *Service) Insert(ctx context.Context, title, content string, tags []string) (string, error) {
	if content == "" {
		return "", ErrEmptyContent
	}
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return "", fmt.Errorf("embedding document: %w", err)
	}
	return s.store.Insert(ctx, Document{
		Title:     title,
		Content:   content,
		Tags:      tags,
		Embedding: embedding,
	})
}

// Query embeds the query text and returns the best matching documents.
func (s *Service) Query(ctx context.Context, query string, limit int) ([]Match, error) {
	if query == "" {
		return []Match{}, nil
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.store.Search(ctx, embedding, limit)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is empty, zero-length, or the dimensions disagree.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores docs against the query embedding and returns the top limit
// matches, best first. Shared by store implementations that rank in process.
func Rank(docs []Document, embedding []float64, limit int) []Match {
	matches := make([]Match, 0, len(docs))
	for _, d := range docs {
		matches = append(matches, Match{
			Document: d,
			Score:    CosineSimilarity(embedding, d.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
