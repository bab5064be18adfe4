package courtside

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchDedupesIdenticalCalls(t *testing.T) {
	tool := okTool("get_team_stats")
	e := testEngineWith(t, tool)

	call := ToolCall{Name: "get_team_stats", Args: json.RawMessage(`{"team":"Celtics","season":"2025-26"}`)}
	reordered := ToolCall{Name: "get_team_stats", Args: json.RawMessage(`{"season":"2025-26","team":"Celtics"}`)}
	calls := []ToolCall{call, reordered, call}

	results := e.dispatch(context.Background(), calls, testRequest(), &RoundTelemetry{})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (one per original position)", len(results))
	}
	if tool.callCount() != 1 {
		t.Errorf("handler ran %d times, want 1 (dedup across key-order variants)", tool.callCount())
	}
	for i, r := range results {
		if !r.Success {
			t.Errorf("result %d failed: %q", i, r.Error)
		}
	}
}

func TestDispatchPreservesInputOrder(t *testing.T) {
	tool := newStubTool([]string{"echo"}, func(_ context.Context, _ string, args json.RawMessage) (ToolResult, error) {
		var a struct {
			I int `json:"i"`
		}
		json.Unmarshal(args, &a)
		return ToolResult{Success: true, Data: map[string]any{"i": a.I}}, nil
	})
	e := testEngineWith(t, tool)

	var calls []ToolCall
	for i := 0; i < 7; i++ {
		calls = append(calls, ToolCall{Name: "echo", Args: json.RawMessage(`{"i":` + string(rune('0'+i)) + `}`)})
	}
	results := e.dispatch(context.Background(), calls, testRequest(), &RoundTelemetry{})
	for i, r := range results {
		if r.Data["i"] != i {
			t.Errorf("position %d holds result for %v", i, r.Data["i"])
		}
	}
}

func TestDispatchFailureIsolation(t *testing.T) {
	tool := newStubTool([]string{"get_scores"}, func(_ context.Context, _ string, args json.RawMessage) (ToolResult, error) {
		if string(args) == `{"date":"bad"}` {
			return ToolResult{Success: false, Error: "no data"}, nil
		}
		return ToolResult{Success: true, Data: map[string]any{"ok": true}}, nil
	})
	e := testEngineWith(t, tool)

	calls := []ToolCall{
		{Name: "get_scores", Args: json.RawMessage(`{"date":"bad"}`)},
		{Name: "get_scores", Args: json.RawMessage(`{"date":"2026-01-14"}`)},
	}
	results := e.dispatch(context.Background(), calls, testRequest(), &RoundTelemetry{})
	if results[0].Success {
		t.Error("first call should fail")
	}
	if !results[1].Success {
		t.Error("second call must succeed despite sibling failure")
	}
}

func TestDispatchConcurrencyBound(t *testing.T) {
	var running, peak atomic.Int32
	tool := newStubTool([]string{"slow"}, func(context.Context, string, json.RawMessage) (ToolResult, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return ToolResult{Success: true}, nil
	})
	e := NewEngine(testRegistry(tool), nil, WithLimits(Limits{MaxConcurrent: 2}))

	var calls []ToolCall
	for i := 0; i < 6; i++ {
		calls = append(calls, ToolCall{Name: "slow", Args: json.RawMessage(`{"i":` + string(rune('0'+i)) + `}`)})
	}
	e.dispatch(context.Background(), calls, testRequest(), &RoundTelemetry{})

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency %d exceeds bound 2", p)
	}
}

func TestDispatchSharedCacheAcrossRequests(t *testing.T) {
	tool := okTool("get_scores")
	cache := NewResultCache(time.Minute, 16)
	e1 := NewEngine(testRegistry(tool), cache)
	e2 := NewEngine(testRegistry(tool), cache)

	call := []ToolCall{{Name: "get_scores", Args: json.RawMessage(`{"date":"2026-01-14"}`)}}
	e1.dispatch(context.Background(), call, Request{ID: "a"}, &RoundTelemetry{})
	results := e2.dispatch(context.Background(), call, Request{ID: "b"}, &RoundTelemetry{})

	if tool.callCount() != 1 {
		t.Errorf("handler ran %d times, want 1 (shared cache)", tool.callCount())
	}
	if !results[0].Cached {
		t.Error("second request should see a cached result")
	}
}

func TestDistinctToolNames(t *testing.T) {
	calls := []ToolCall{
		{Name: "get_scores"},
		{Name: "get_schedule"},
		{Name: "get_scores"},
	}
	names := distinctToolNames(calls)
	if len(names) != 2 || names[0] != "get_scores" || names[1] != "get_schedule" {
		t.Errorf("got %v", names)
	}
}
