package courtside

import (
	"context"
	"sync"
)

// dispatchSlot pairs one unique call with its eventual result.
type dispatchSlot struct {
	call   ToolCall
	result ToolResult
}

// dispatch executes one round's tool calls and returns results in the exact
// order of the input list, duplicates included.
//
// Duplicate calls are collapsed by dedup key before execution: the handler
// runs once per unique key and every original position receives the same
// result value. Unique calls run in fixed-size waves of MaxConcurrent;
// each wave is awaited before the next starts. Tool counts per round are
// small, so the simple wave scheduler beats a work-stealing pool on clarity.
func (e *Engine) dispatch(ctx context.Context, calls []ToolCall, req Request, tel *RoundTelemetry) []ToolResult {
	keys := make([]string, len(calls))
	unique := make(map[string]*dispatchSlot, len(calls))
	var order []string
	for i, call := range calls {
		key := dedupKey(call.Name, call.Args)
		keys[i] = key
		if _, seen := unique[key]; !seen {
			unique[key] = &dispatchSlot{call: call}
			order = append(order, key)
		}
	}

	width := e.limits.MaxConcurrent
	for start := 0; start < len(order); start += width {
		end := min(start+width, len(order))
		var wg sync.WaitGroup
		for _, key := range order[start:end] {
			slot := unique[key]
			wg.Add(1)
			go func() {
				defer wg.Done()
				slot.result = e.execute(ctx, slot.call, req, tel)
			}()
		}
		wg.Wait()
	}

	// Pure re-projection: fan unique results back onto every original
	// position by key. No I/O happens here.
	results := make([]ToolResult, len(calls))
	for i, key := range keys {
		results[i] = unique[key].result
	}
	return results
}

// distinctToolNames returns the distinct tool names of a pending batch in
// first-seen order, for the tool_status event.
func distinctToolNames(calls []ToolCall) []string {
	var names []string
	seen := make(map[string]bool, len(calls))
	for _, c := range calls {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	return names
}
