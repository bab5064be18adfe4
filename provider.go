package courtside

import "context"

// ChunkKind classifies a chunk from the upstream stream.
type ChunkKind string

const (
	// ChunkText carries visible answer text.
	ChunkText ChunkKind = "text"
	// ChunkThought carries reasoning text from a thinking model.
	ChunkThought ChunkKind = "thought"
	// ChunkFunctionCalls carries one or more requested tool invocations.
	ChunkFunctionCalls ChunkKind = "function_calls"
	// ChunkGrounding carries search-grounding attribution metadata.
	ChunkGrounding ChunkKind = "grounding"
	// ChunkNone marks a chunk with nothing the engine consumes.
	ChunkNone ChunkKind = "none"
)

// Chunk is one pre-classified element of an upstream response stream.
// Err, when set, reports a fatal stream failure; the chunk carries no other
// payload and the stream closes after it.
type Chunk struct {
	Kind      ChunkKind
	Text      string
	Calls     []ToolCall
	Grounding *Grounding
	Err       error
}

// Grounding is the serving metadata attached to a grounded answer segment.
type Grounding struct {
	Sources []GroundingSource `json:"sources,omitempty"`
	Queries []string          `json:"queries,omitempty"`
}

// GroundingSource identifies one attributed web source.
type GroundingSource struct {
	URI    string `json:"uri,omitempty"`
	Title  string `json:"title,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// StreamFunc opens one round of upstream streaming for the given history.
// The returned channel must be finite: the producer closes it when the
// response is exhausted, after sending a Chunk with Err set on failure, or
// promptly once ctx is cancelled.
type StreamFunc func(ctx context.Context, history []Turn) (<-chan Chunk, error)
