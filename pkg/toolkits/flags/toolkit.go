// Package flags exposes the runtime config flag store as tools, including
// the assistant system prompt.
package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opaline/shopassist/pkg/configstore"
	"github.com/opaline/shopassist/pkg/registry"
)

// Tool names.
const (
	promptToolName = "getSystemPrompt"
	getToolName    = "getKVFlag"
	setToolName    = "setKVFlag"
)

const maxValueLength = 32_768

// Toolkit serves flag tools over a config store.
type Toolkit struct {
	store configstore.Store
}

// New creates a flags toolkit.
func New(store configstore.Store) *Toolkit {
	return &Toolkit{store: store}
}

type keyInput struct {
	Key string `json:"key"`
}

type setInput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (in setInput) validate() error {
	if in.Key == "" {
		return registry.InvalidParam("key", "must not be empty")
	}
	if len(in.Value) > maxValueLength {
		return registry.InvalidParam("value", fmt.Sprintf("must be at most %d characters", maxValueLength))
	}
	return nil
}

// RegisterTools registers the flag tools.
func (t *Toolkit) RegisterTools(r *registry.Registry) {
	r.MustRegister(registry.Tool{
		Name:        promptToolName,
		Description: "Return the current assistant system prompt.",
		InputSchema: getSystemPromptSchema,
		Handler:     t.handleSystemPrompt,
	})
	r.MustRegister(registry.Tool{
		Name:        getToolName,
		Description: "Read one runtime config flag by key.",
		InputSchema: getKVFlagSchema,
		Handler:     t.handleGet,
	})
	r.MustRegister(registry.Tool{
		Name:        setToolName,
		Description: "Write one runtime config flag. Takes effect immediately without redeploy.",
		InputSchema: setKVFlagSchema,
		Mutating:    true,
		Handler:     t.handleSet,
	})
}

func (t *Toolkit) handleSystemPrompt(ctx context.Context, _ json.RawMessage) (any, error) {
	value, err := t.store.Get(ctx, configstore.SystemPromptKey)
	if errors.Is(err, configstore.ErrNotFound) {
		return map[string]string{"prompt": ""}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading system prompt: %w", err)
	}
	return map[string]string{"prompt": value}, nil
}

func (t *Toolkit) handleGet(ctx context.Context, args json.RawMessage) (any, error) {
	var in keyInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if in.Key == "" {
		return nil, registry.InvalidParam("key", "must not be empty")
	}

	value, err := t.store.Get(ctx, in.Key)
	if errors.Is(err, configstore.ErrNotFound) {
		return nil, registry.InvalidParam("key", "unknown flag")
	}
	if err != nil {
		return nil, fmt.Errorf("reading config flag: %w", err)
	}
	return map[string]string{"key": in.Key, "value": value}, nil
}

func (t *Toolkit) handleSet(ctx context.Context, args json.RawMessage) (any, error) {
	var in setInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, registry.InvalidParam("arguments", "must be a JSON object")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	if err := t.store.Set(ctx, in.Key, in.Value); err != nil {
		if errors.Is(err, configstore.ErrReadOnly) {
			return nil, registry.InvalidParam("key", "flag store is read-only")
		}
		return nil, fmt.Errorf("writing config flag: %w", err)
	}
	return map[string]string{"key": in.Key, "status": "updated"}, nil
}
