package courtside

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServeSSEFramesEvents(t *testing.T) {
	events := make(chan Event, 4)
	events <- Event{Type: EventText, Content: "The Celtics should win."}
	events <- Event{Type: EventToolStatus, Status: StatusCalling, Tools: []string{"get_scores"}}
	events <- Event{Type: EventDone}
	close(events)

	rec := httptest.NewRecorder()
	if err := ServeSSE(rec, events); err != nil {
		t.Fatalf("ServeSSE: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3:\n%s", len(frames), body)
	}
	if !strings.HasPrefix(frames[0], "event: text\ndata: ") {
		t.Errorf("bad first frame: %q", frames[0])
	}
	if !strings.Contains(frames[0], `"The Celtics should win."`) {
		t.Errorf("payload missing: %q", frames[0])
	}
	if !strings.HasPrefix(frames[1], "event: tool_status\n") ||
		!strings.Contains(frames[1], `"get_scores"`) {
		t.Errorf("bad tool_status frame: %q", frames[1])
	}
	if !strings.HasPrefix(frames[2], "event: done\n") {
		t.Errorf("bad terminal frame: %q", frames[2])
	}
}

func TestServeSSEEmptyStream(t *testing.T) {
	events := make(chan Event)
	close(events)
	rec := httptest.NewRecorder()
	if err := ServeSSE(rec, events); err != nil {
		t.Fatalf("ServeSSE: %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}
