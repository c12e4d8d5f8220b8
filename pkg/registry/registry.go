// Package registry provides the static tool registry and the JSON-RPC
// dispatcher for the tool invocation surface. The registry is built once at
// startup and treated as read-only afterwards; dispatch is a lookup plus an
// invocation, not per-tool branching.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Handler executes a tool call. Arguments arrive as the raw JSON object from
// the request; the handler owns decoding and validation of its own input.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool describes a registered tool: its name, input schema, side-effect
// class and bound handler.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Mutating    bool
	Handler     Handler
}

// Descriptor is the externally visible shape of a tool, as returned by
// tools/list.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Registry maps tool names to their definitions. Register all tools during
// startup; the registry is not safe for concurrent mutation afterwards.
type Registry struct {
	tools map[string]Tool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be unique and handlers non-nil.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("registering tool: name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("registering tool %q: handler is required", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("registering tool %q: already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// MustRegister is Register that panics on error. Intended for static
// startup wiring where a duplicate name is a programming error.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns descriptors for all tools sorted by name, so tools/list
// output is stable.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		out = append(out, Descriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
