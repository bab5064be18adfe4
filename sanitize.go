package courtside

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// User-safe messages for failure paths that are not tied to a tool family.
const (
	msgUnknownError = "Unknown error"
	msgCancelled    = "Request cancelled."
	// msgLoopFailure is the single generic phrase emitted on a loop-fatal
	// failure. It carries no internal detail.
	msgLoopFailure = "Something went wrong while answering. Please try again."
)

// safePhrases maps tool-name families to fixed, user-presentable messages.
// Matched by substring on the tool name; first match wins.
var safePhrases = []struct {
	match  string
	phrase string
}{
	{"schedule", "Schedule data temporarily unavailable."},
	{"score", "Score data temporarily unavailable."},
	{"team_stats", "Team stats temporarily unavailable."},
	{"rating", "Rating data temporarily unavailable."},
	{"prior", "Historical trend data temporarily unavailable."},
}

const genericUnavailable = "Data temporarily unavailable."

// Sanitize maps a raw tool failure to a safe, user-presentable message and
// logs the raw error server-side keyed by the request id. The returned
// string never contains connection strings, hostnames, credentials, or
// stack traces — only the fixed phrase for the tool's family, or the
// timeout phrase naming the tool and its budget.
func Sanitize(logger *slog.Logger, tool string, raw error, requestID string) string {
	if logger == nil {
		logger = nopLogger
	}
	logger.Error("tool failure",
		"request_id", requestID,
		"tool", tool,
		"error", raw,
	)

	var timeout *ErrTimeout
	if errors.As(raw, &timeout) {
		return fmt.Sprintf("%s timed out after %s.", timeout.Tool, timeout.Limit)
	}

	for _, f := range safePhrases {
		if strings.Contains(tool, f.match) {
			return f.phrase
		}
	}
	return genericUnavailable
}
