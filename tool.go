package courtside

import (
	"context"
	"encoding/json"
)

// Tool defines a named data-fetching capability with one or more functions.
// Implementations are opaque to the engine: potentially slow, potentially
// failing. A handler must check ctx before performing I/O and fail fast with
// a cancellation-flavored result when already cancelled — the engine stops
// waiting at the per-call timeout but never force-aborts a handler.
type Tool interface {
	Definitions() []ToolDefinition
	Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error)
}

// ToolDefinition describes one callable function for the upstream model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// Registry holds the registered capabilities and resolves calls by name.
type Registry struct {
	tools []Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a tool.
func (r *Registry) Add(t Tool) {
	r.tools = append(r.tools, t)
}

// AllDefinitions returns the definitions of every registered function.
func (r *Registry) AllDefinitions() []ToolDefinition {
	var defs []ToolDefinition
	for _, t := range r.tools {
		defs = append(defs, t.Definitions()...)
	}
	return defs
}

// lookup resolves a function name to its owning tool.
func (r *Registry) lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		for _, d := range t.Definitions() {
			if d.Name == name {
				return t, true
			}
		}
	}
	return nil, false
}
