package courtside

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExecuteSuccessCachedAndStamped(t *testing.T) {
	tool := okTool("get_scores")
	e := testEngineWith(t, tool)
	call := ToolCall{Name: "get_scores", Args: json.RawMessage(`{"date":"2026-01-14"}`)}
	tel := &RoundTelemetry{}

	result := e.execute(context.Background(), call, testRequest(), tel)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.Cached {
		t.Error("first execution must not be marked cached")
	}
	if result.FetchedAt == 0 {
		t.Error("FetchedAt not stamped")
	}
	if tel.CacheMisses != 1 || tel.CacheHits != 0 {
		t.Errorf("miss/hit = %d/%d, want 1/0", tel.CacheMisses, tel.CacheHits)
	}

	// Second execution: served from cache, handler not re-run.
	again := e.execute(context.Background(), call, testRequest(), tel)
	if !again.Cached {
		t.Error("second execution should be a cache hit")
	}
	if tool.callCount() != 1 {
		t.Errorf("handler ran %d times, want 1", tool.callCount())
	}
	if tel.CacheHits != 1 {
		t.Errorf("hits = %d, want 1", tel.CacheHits)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := testEngineWith(t, okTool("get_scores"))
	tel := &RoundTelemetry{}

	result := e.execute(context.Background(),
		ToolCall{Name: "get_injuries", Args: json.RawMessage(`{}`)}, testRequest(), tel)
	if result.Success {
		t.Fatal("unknown tool must fail")
	}
	if !strings.Contains(result.Error, "Unknown tool: get_injuries") {
		t.Errorf("unexpected error: %q", result.Error)
	}
}

func TestExecuteHandlerErrorSanitized(t *testing.T) {
	tool := newStubTool([]string{"get_schedule"}, func(context.Context, string, json.RawMessage) (ToolResult, error) {
		return ToolResult{}, errors.New("pq: password authentication failed for user svc")
	})
	e := testEngineWith(t, tool)

	result := e.execute(context.Background(),
		ToolCall{Name: "get_schedule", Args: json.RawMessage(`{}`)}, testRequest(), &RoundTelemetry{})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "Schedule data temporarily unavailable." {
		t.Errorf("unexpected message: %q", result.Error)
	}
}

func TestExecuteFailureNotCachedAndDataCleared(t *testing.T) {
	tool := newStubTool([]string{"get_scores"}, func(context.Context, string, json.RawMessage) (ToolResult, error) {
		return ToolResult{Success: false, Data: map[string]any{"partial": true}}, nil
	})
	e := testEngineWith(t, tool)
	call := ToolCall{Name: "get_scores", Args: json.RawMessage(`{}`)}
	tel := &RoundTelemetry{}

	result := e.execute(context.Background(), call, testRequest(), tel)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != msgUnknownError {
		t.Errorf("empty error should default, got %q", result.Error)
	}
	if result.Data != nil {
		t.Error("failed result must not carry data")
	}

	e.execute(context.Background(), call, testRequest(), tel)
	if tool.callCount() != 2 {
		t.Error("failures must not be cached")
	}
}

func TestExecuteTimeout(t *testing.T) {
	tool := newStubTool([]string{"get_team_stats"}, func(ctx context.Context, _ string, _ json.RawMessage) (ToolResult, error) {
		<-ctx.Done()
		return ToolResult{}, ctx.Err()
	})
	e := NewEngine(testRegistry(tool), nil,
		WithLimits(Limits{CallTimeout: 30 * time.Millisecond}))

	start := time.Now()
	result := e.execute(context.Background(),
		ToolCall{Name: "get_team_stats", Args: json.RawMessage(`{}`)}, testRequest(), &RoundTelemetry{})
	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(result.Error, "timed out after") {
		t.Errorf("unexpected message: %q", result.Error)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("engine waited past the budget: %s", elapsed)
	}
}

func TestExecuteCallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := testEngineWith(t, okTool("get_scores"))

	result := e.execute(ctx,
		ToolCall{Name: "get_scores", Args: json.RawMessage(`{}`)}, testRequest(), &RoundTelemetry{})
	if result.Success {
		t.Fatal("expected cancellation failure")
	}
	if result.Error != msgCancelled {
		t.Errorf("unexpected message: %q", result.Error)
	}
}

func testEngineWith(t *testing.T, tools ...Tool) *Engine {
	t.Helper()
	return NewEngine(testRegistry(tools...), nil)
}
