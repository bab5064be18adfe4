package courtside

import (
	"encoding/json"
	"testing"
)

func TestCanonicalArgsKeyOrderIndependent(t *testing.T) {
	a := json.RawMessage(`{"team":"Celtics","season":"2025-26"}`)
	b := json.RawMessage(`{"season":"2025-26","team":"Celtics"}`)
	if CanonicalArgs(a) != CanonicalArgs(b) {
		t.Errorf("key order changed canonical form: %q vs %q", CanonicalArgs(a), CanonicalArgs(b))
	}
}

func TestCanonicalArgsNestedObjects(t *testing.T) {
	a := json.RawMessage(`{"filter":{"b":2,"a":1},"x":true}`)
	b := json.RawMessage(`{"x":true,"filter":{"a":1,"b":2}}`)
	got := CanonicalArgs(a)
	if got != CanonicalArgs(b) {
		t.Errorf("nested key order changed canonical form")
	}
	want := `{"filter":{"a":1,"b":2},"x":true}`
	if got != want {
		t.Errorf("canonical form = %q, want %q", got, want)
	}
}

func TestCanonicalArgsArrayOrderPreserved(t *testing.T) {
	a := CanonicalArgs(json.RawMessage(`{"teams":["Lakers","Celtics"]}`))
	b := CanonicalArgs(json.RawMessage(`{"teams":["Celtics","Lakers"]}`))
	if a == b {
		t.Error("array order must be significant")
	}
}

func TestCanonicalArgsNumberRepresentation(t *testing.T) {
	got := CanonicalArgs(json.RawMessage(`{"limit":10,"rate":0.61,"big":9007199254740993}`))
	want := `{"big":9007199254740993,"limit":10,"rate":0.61}`
	if got != want {
		t.Errorf("numbers mangled: %q, want %q", got, want)
	}
}

func TestCanonicalArgsEmpty(t *testing.T) {
	if got := CanonicalArgs(nil); got != "{}" {
		t.Errorf("nil args = %q, want {}", got)
	}
	if got := CanonicalArgs(json.RawMessage("  ")); got != "{}" {
		t.Errorf("blank args = %q, want {}", got)
	}
}

func TestCanonicalArgsInvalidJSONStable(t *testing.T) {
	raw := json.RawMessage(` {"broken": `)
	first := CanonicalArgs(raw)
	if first != CanonicalArgs(raw) {
		t.Error("invalid JSON must still canonicalize deterministically")
	}
}

func TestDedupKeyIncludesName(t *testing.T) {
	args := json.RawMessage(`{"team":"Heat"}`)
	if dedupKey("get_schedule", args) == dedupKey("get_scores", args) {
		t.Error("dedup key must distinguish tool names")
	}
}
