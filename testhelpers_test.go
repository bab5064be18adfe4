package courtside

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// stubTool is a scriptable Tool for engine tests.
type stubTool struct {
	mu    sync.Mutex
	names []string
	fn    func(ctx context.Context, name string, args json.RawMessage) (ToolResult, error)
	calls []ToolCall // every Execute invocation, in arrival order
}

func newStubTool(names []string, fn func(ctx context.Context, name string, args json.RawMessage) (ToolResult, error)) *stubTool {
	return &stubTool{names: names, fn: fn}
}

func (s *stubTool) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, len(s.names))
	for i, n := range s.names {
		defs[i] = ToolDefinition{Name: n, Parameters: json.RawMessage(`{"type":"object"}`)}
	}
	return defs
}

func (s *stubTool) Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, ToolCall{Name: name, Args: args})
	s.mu.Unlock()
	return s.fn(ctx, name, args)
}

func (s *stubTool) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// okTool always succeeds with a fixed payload.
func okTool(names ...string) *stubTool {
	return newStubTool(names, func(context.Context, string, json.RawMessage) (ToolResult, error) {
		return ToolResult{Success: true, Data: map[string]any{"ok": true}}, nil
	})
}

func testRegistry(tools ...Tool) *Registry {
	r := NewRegistry()
	for _, t := range tools {
		r.Add(t)
	}
	return r
}

// scriptStream returns a StreamFunc that replays one scripted chunk sequence
// per round, in order. Calling it past the script fails the test.
func scriptStream(t *testing.T, rounds ...[]Chunk) StreamFunc {
	t.Helper()
	var mu sync.Mutex
	round := 0
	return func(ctx context.Context, history []Turn) (<-chan Chunk, error) {
		mu.Lock()
		if round >= len(rounds) {
			mu.Unlock()
			t.Errorf("stream called for unscripted round %d", round)
			return nil, &ErrUpstream{Provider: "script", Message: "out of rounds"}
		}
		script := rounds[round]
		round++
		mu.Unlock()

		ch := make(chan Chunk, len(script))
		for _, c := range script {
			ch <- c
		}
		close(ch)
		return ch, nil
	}
}

// collect drains the event channel with a watchdog so a stuck engine fails
// the test instead of hanging it.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out draining events; got %d so far", len(out))
		}
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func callChunk(calls ...ToolCall) Chunk {
	return Chunk{Kind: ChunkFunctionCalls, Calls: calls}
}

func textChunk(s string) Chunk { return Chunk{Kind: ChunkText, Text: s} }

func testRequest() Request {
	return Request{ID: "req-test", Start: time.Now()}
}
