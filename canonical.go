package courtside

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// CanonicalArgs serializes a tool call's JSON arguments deterministically:
// object keys are emitted in sorted order at every depth, array order is
// preserved, and numbers keep their source representation (json.Number, no
// float round-trip). Two argument objects that differ only in key order
// produce the same string, which makes the result usable as a cache and
// dedup key component.
//
// Input that is not valid JSON is returned trimmed as-is; it still yields a
// stable (if non-canonical) key.
func CanonicalArgs(args json.RawMessage) string {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 {
		return "{}"
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(trimmed)
	}
	var sb strings.Builder
	writeCanonical(&sb, v)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			sb.Write(kb)
			sb.WriteByte(':')
			writeCanonical(sb, t[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, e)
		}
		sb.WriteByte(']')
	case json.Number:
		sb.WriteString(t.String())
	default:
		b, _ := json.Marshal(t)
		sb.Write(b)
	}
}

// dedupKey is the canonical identity of a tool call within a dispatch batch
// and across the result cache.
func dedupKey(name string, args json.RawMessage) string {
	return name + ":" + CanonicalArgs(args)
}
