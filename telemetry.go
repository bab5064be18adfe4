package courtside

import (
	"log/slog"
	"sync"
)

// RoundTelemetry accumulates per-request counters across the tool-calling
// loop. One instance is owned by a single Engine.Run and never shared across
// requests; dispatch goroutines within the request update it concurrently.
// It is logged exactly once at loop termination, on every exit path.
type RoundTelemetry struct {
	mu sync.Mutex

	ToolRounds         int
	ToolCallsTotal     int
	CacheHits          int
	CacheMisses        int
	ToolLatencyMSTotal int64
	TextGatedRounds    int
	DeadlineSkip       bool
	AbortReason        string
}

func (t *RoundTelemetry) addCacheHit() {
	t.mu.Lock()
	t.CacheHits++
	t.mu.Unlock()
}

func (t *RoundTelemetry) addCacheMiss() {
	t.mu.Lock()
	t.CacheMisses++
	t.mu.Unlock()
}

func (t *RoundTelemetry) addLatency(ms int64) {
	t.mu.Lock()
	t.ToolLatencyMSTotal += ms
	t.mu.Unlock()
}

// HitRate returns the cache hit fraction, 0 when nothing was looked up.
func (t *RoundTelemetry) HitRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.CacheHits + t.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(t.CacheHits) / float64(total)
}

// log emits the accumulated counters as one structured record.
func (t *RoundTelemetry) log(logger *slog.Logger, requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	attrs := []any{
		"request_id", requestID,
		"tool_rounds", t.ToolRounds,
		"tool_calls_total", t.ToolCallsTotal,
		"cache_hits", t.CacheHits,
		"cache_misses", t.CacheMisses,
		"tool_latency_ms_total", t.ToolLatencyMSTotal,
		"text_gated_rounds", t.TextGatedRounds,
	}
	if t.DeadlineSkip {
		attrs = append(attrs, "deadline_skip", true)
	}
	if t.AbortReason != "" {
		attrs = append(attrs, "abort_reason", t.AbortReason)
	}
	logger.Info("request complete", attrs...)
}
