package courtside

import (
	"context"
	"time"
)

// execute runs exactly one tool call to completion: cache, registry lookup,
// then the handler raced against the per-call timeout. It always returns a
// ToolResult — failures of every flavor are recovered locally — and as a
// side effect writes successful results into the shared cache.
func (e *Engine) execute(ctx context.Context, call ToolCall, req Request, tel *RoundTelemetry) ToolResult {
	if ctx.Err() != nil {
		return ToolResult{Success: false, Error: msgCancelled}
	}

	if cached, ok := e.cache.Get(call.Name, call.Args); ok {
		tel.addCacheHit()
		cached.Cached = true
		return cached
	}
	tel.addCacheMiss()

	tool, ok := e.registry.lookup(call.Name)
	if !ok {
		return ToolResult{Success: false, Error: "Unknown tool: " + call.Name}
	}

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, e.limits.CallTimeout)
	defer cancel()

	type outcome struct {
		result ToolResult
		err    error
	}
	// Buffered so a handler finishing after the timeout doesn't leak its
	// goroutine on send. The engine stops waiting; the handler unwinds on
	// its own once it observes callCtx.
	done := make(chan outcome, 1)
	go func() {
		result, err := tool.Execute(callCtx, call.Name, call.Args)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return ToolResult{Success: false, Error: Sanitize(e.logger, call.Name, o.err, req.ID)}
		}
		result := o.result
		if !result.Success {
			if result.Error == "" {
				result.Error = msgUnknownError
			}
			result.Data = nil
			return result
		}
		result.LatencyMS = time.Since(start).Milliseconds()
		result.FetchedAt = NowUnix()
		tel.addLatency(result.LatencyMS)
		e.cache.Set(call.Name, call.Args, result)
		return result
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// Caller cancelled, not a tool timeout.
			return ToolResult{Success: false, Error: msgCancelled}
		}
		err := &ErrTimeout{Tool: call.Name, Limit: e.limits.CallTimeout}
		return ToolResult{Success: false, Error: Sanitize(e.logger, call.Name, err, req.ID)}
	}
}
