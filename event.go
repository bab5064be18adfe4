package courtside

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventType identifies the kind of engine output event.
type EventType string

const (
	// EventText carries final answer text for a round without tool calls.
	EventText EventType = "text"
	// EventThought carries reasoning text, emitted under the same gating
	// rule as EventText.
	EventThought EventType = "thought"
	// EventGrounding carries search-grounding attribution; never gated.
	EventGrounding EventType = "grounding"
	// EventToolStatus signals the start and end of a round's tool dispatch.
	EventToolStatus EventType = "tool_status"
	// EventError reports a loop-fatal failure as one generic message.
	EventError EventType = "error"
	// EventDone terminates the sequence; emitted exactly once per request.
	EventDone EventType = "done"
)

// Tool dispatch phases carried on tool_status events.
const (
	StatusCalling  = "calling"
	StatusComplete = "complete"
)

// Event is one element of the engine's consumer-facing output sequence.
// Consumers must treat the sequence as append-only and terminal after done.
type Event struct {
	Type      EventType  `json:"type"`
	Content   string     `json:"content,omitempty"`
	Grounding *Grounding `json:"grounding,omitempty"`
	// Status is "calling" or "complete" on tool_status events.
	Status string `json:"status,omitempty"`
	// Tools lists the distinct tool names of a dispatch (tool_status only).
	Tools []string `json:"tools,omitempty"`
}

// ServeSSE forwards an engine event stream to w as Server-Sent Events,
// one SSE event per engine event:
//
//	event: <type>
//	data: <json-encoded Event>
//
// It returns once the stream closes; the engine's own done event is the
// terminal element. Client disconnects propagate to the engine through the
// request context the caller passed to Engine.Run.
func ServeSSE(w http.ResponseWriter, events <-chan Event) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return fmt.Errorf("ResponseWriter does not implement http.Flusher")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
		flusher.Flush()
	}
	return nil
}
