// Package conversations exposes the persisted conversation read path as
// tools for operator review.
package conversations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opaline/shopassist/pkg/conversation"
	"github.com/opaline/shopassist/pkg/registry"
)

// Tool names.
const (
	queryToolName      = "queryConversations"
	transcriptToolName = "getTranscript"
)

const maxQueryLimit = 200

// Toolkit serves conversation query tools over the relational read path.
type Toolkit struct {
	store conversation.Store
}

// New creates a conversations toolkit.
func New(store conversation.Store) *Toolkit {
	return &Toolkit{store: store}
}

type queryInput struct {
	SessionID string `json:"session_id,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// filter parses the input into a store filter, validating timestamps.
func (in queryInput) filter() (conversation.Filter, error) {
	f := conversation.Filter{SessionID: in.SessionID, Limit: in.Limit}

	if in.Limit < 0 || in.Limit > maxQueryLimit {
		return f, registry.InvalidParam("limit", fmt.Sprintf("must be between 0 and %d", maxQueryLimit))
	}
	if in.From != "" {
		ts, err := time.Parse(time.RFC3339, in.From)
		if err != nil {
			return f, registry.InvalidParam("from", "must be an RFC 3339 timestamp")
		}
		f.From = &ts
	}
	if in.To != "" {
		ts, err := time.Parse(time.RFC3339, in.To)
		if err != nil {
			return f, registry.InvalidParam("to", "must be an RFC 3339 timestamp")
		}
		f.To = &ts
	}
	return f, nil
}

type transcriptInput struct {
	SessionID string `json:"session_id"`
}

// RegisterTools registers the conversation tools.
func (t *Toolkit) RegisterTools(r *registry.Registry) {
	r.MustRegister(registry.Tool{
		Name:        queryToolName,
		Description: "List persisted conversations, newest first, optionally filtered by session id and started-at date range.",
		InputSchema: queryConversationsSchema,
		Handler:     t.handleQuery,
	})
	r.MustRegister(registry.Tool{
		Name:        transcriptToolName,
		Description: "Return the full persisted transcript for a session id, in message creation order.",
		InputSchema: getTranscriptSchema,
		Handler:     t.handleTranscript,
	})
}

func (t *Toolkit) handleQuery(ctx context.Context, args json.RawMessage) (any, error) {
	var in queryInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	filter, err := in.filter()
	if err != nil {
		return nil, err
	}

	conversations, err := t.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return map[string]any{"conversations": conversations}, nil
}

func (t *Toolkit) handleTranscript(ctx context.Context, args json.RawMessage) (any, error) {
	var in transcriptInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if in.SessionID == "" {
		return nil, registry.InvalidParam("session_id", "must not be empty")
	}

	messages, err := t.store.Transcript(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}
	return map[string]any{"session_id": in.SessionID, "messages": messages}, nil
}
