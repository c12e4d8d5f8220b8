// Package knowledge exposes the knowledge base as tools: document insertion
// for operators and similarity queries for the assistant.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opaline/shopassist/pkg/knowledge"
	"github.com/opaline/shopassist/pkg/registry"
)

// Tool names.
const (
	insertToolName = "insertKnowledge"
	queryToolName  = "queryKnowledge"
)

const (
	maxContentLength = 16_384
	maxTags          = 10
	maxQueryLimit    = 20
	defaultLimit     = 5
)

// Toolkit serves knowledge tools over a knowledge service.
type Toolkit struct {
	svc *knowledge.Service
}

// New creates a knowledge toolkit.
func New(svc *knowledge.Service) *Toolkit {
	return &Toolkit{svc: svc}
}

type insertInput struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

func (in insertInput) validate() error {
	if in.Content == "" {
		return registry.InvalidParam("content", "must not be empty")
	}
	if len(in.Content) > maxContentLength {
		return registry.InvalidParam("content", fmt.Sprintf("must be at most %d characters", maxContentLength))
	}
	if len(in.Tags) > maxTags {
		return registry.InvalidParam("tags", fmt.Sprintf("at most %d tags allowed", maxTags))
	}
	return nil
}

type queryInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (in queryInput) validate() error {
	if in.Query == "" {
		return registry.InvalidParam("query", "must not be empty")
	}
	if in.Limit < 0 || in.Limit > maxQueryLimit {
		return registry.InvalidParam("limit", fmt.Sprintf("must be between 0 and %d", maxQueryLimit))
	}
	return nil
}

// RegisterTools registers the knowledge tools.
func (t *Toolkit) RegisterTools(r *registry.Registry) {
	r.MustRegister(registry.Tool{
		Name:        insertToolName,
		Description: "Insert a knowledge document into the store. The content is embedded and becomes retrievable by similarity.",
		InputSchema: insertKnowledgeSchema,
		Mutating:    true,
		Handler:     t.handleInsert,
	})
	r.MustRegister(registry.Tool{
		Name:        queryToolName,
		Description: "Retrieve knowledge documents most similar to a free-text query, best match first.",
		InputSchema: queryKnowledgeSchema,
		Handler:     t.handleQuery,
	})
}

func (t *Toolkit) handleInsert(ctx context.Context, args json.RawMessage) (any, error) {
	var in insertInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	id, err := t.svc.Insert(ctx, in.Title, in.Content, in.Tags)
	if err != nil {
		return nil, fmt.Errorf("inserting knowledge document: %w", err)
	}
	return map[string]string{"id": id, "status": "stored"}, nil
}

func (t *Toolkit) handleQuery(ctx context.Context, args json.RawMessage) (any, error) {
	var in queryInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	limit := in.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	matches, err := t.svc.Query(ctx, in.Query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge: %w", err)
	}
	return map[string]any{"matches": matches}, nil
}
