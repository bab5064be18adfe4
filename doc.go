// Package courtside implements a streaming tool-calling orchestration engine
// for a conversational NBA analyst.
//
// The Engine consumes a provider's classified chunk stream round by round,
// gates preliminary text whenever the model requests data tools, dispatches
// deduplicated tool calls with bounded concurrency against a shared TTL
// cache, replays results (with opaque provenance preserved) back into the
// conversation history, and emits a normalized event sequence that always
// terminates with exactly one done event.
//
// Concrete collaborators live in subpackages: provider/gemini produces the
// chunk stream, store/postgres and store/sqlite back the NBA data tools in
// tools/nba, and observer provides OTEL-based tracing.
package courtside
