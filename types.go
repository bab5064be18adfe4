package courtside

import (
	"context"
	"encoding/json"
	"time"
)

// Roles for conversation turns. The model role carries text and tool-call
// parts; the tool role carries one response part per call of the preceding
// model turn.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// Turn is one entry in the conversation history. Turns are appended, never
// mutated in place; the Engine owns the turn list for the lifetime of one
// request.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a single message fragment within a Turn. Exactly one of Text,
// Call, or Response is meaningful.
type Part struct {
	Text     string        `json:"text,omitempty"`
	Thought  bool          `json:"thought,omitempty"`
	Call     *ToolCall     `json:"call,omitempty"`
	Response *CallResponse `json:"response,omitempty"`
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
	// Provenance is an opaque upstream token attached to the call (e.g. a
	// thoughtSignature from a thinking model). It is carried verbatim and
	// replayed on the model turn; the engine never parses or regenerates it.
	Provenance json.RawMessage `json:"provenance,omitempty"`
}

// CallResponse pairs a tool result with the call name for history replay.
type CallResponse struct {
	Name   string     `json:"name"`
	Result ToolResult `json:"result"`
}

// ToolResult is the outcome of one tool execution.
// Success=true implies Error is empty; Success=false implies Data is nil.
type ToolResult struct {
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Cached    bool           `json:"cached,omitempty"`
	LatencyMS int64          `json:"latency_ms,omitempty"`
	FetchedAt int64          `json:"fetched_at,omitempty"`
}

// Request is the request-scoped bundle passed through to every tool handler.
// Cancellation travels separately as the context given to Engine.Run.
type Request struct {
	// ID identifies the request in logs and traces.
	ID string
	// MatchID optionally pins the conversation to a specific game.
	MatchID string
	// Store is the data-access handle for tool handlers.
	Store Store
	// Start is when the caller began handling this request. The wall-clock
	// budget is measured from here, not from Run.
	Start time.Time
}

// --- Turn constructors ---

// UserTurn wraps plain user text in a Turn.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// ModelTextTurn wraps final model text in a Turn.
func ModelTextTurn(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// modelCallTurn builds the model-role turn holding the raw call parts of one
// round. Provenance blobs ride along untouched inside each ToolCall.
func modelCallTurn(calls []ToolCall) Turn {
	parts := make([]Part, len(calls))
	for i := range calls {
		c := calls[i]
		parts[i] = Part{Call: &c}
	}
	return Turn{Role: RoleModel, Parts: parts}
}

// toolResponseTurn builds the tool-role turn with one response per original
// call, in call order. A missing or malformed result falls back to a safe
// failure so the model always sees a complete response list.
func toolResponseTurn(calls []ToolCall, results []ToolResult) Turn {
	parts := make([]Part, len(calls))
	for i, c := range calls {
		r := ToolResult{Success: false, Error: msgUnknownError}
		if i < len(results) {
			r = results[i]
			if !r.Success && r.Error == "" {
				r.Error = msgUnknownError
			}
		}
		parts[i] = Part{Response: &CallResponse{Name: c.Name, Result: r}}
	}
	return Turn{Role: RoleTool, Parts: parts}
}

// --- Request context propagation ---

// requestCtxKey is the context key for Request.
type requestCtxKey struct{}

// WithRequestContext returns a child context carrying the Request.
// Engine.Run attaches it before any handler runs.
func WithRequestContext(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, req)
}

// RequestFromContext retrieves the Request from ctx. Tool handlers use this
// to reach the store and match/session identifiers without widening the
// Tool interface.
func RequestFromContext(ctx context.Context) (Request, bool) {
	req, ok := ctx.Value(requestCtxKey{}).(Request)
	return req, ok
}
