package courtside

import (
	"fmt"
	"time"
)

// ErrUpstream reports a failure talking to the upstream model provider.
type ErrUpstream struct {
	Provider string
	Message  string
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP reports a non-2xx upstream HTTP response. RetryAfter carries the
// parsed Retry-After header when the upstream provided one.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ErrTimeout reports a tool handler exceeding its per-call budget.
// The sanitizer formats it into the user-visible timeout phrase.
type ErrTimeout struct {
	Tool  string
	Limit time.Duration
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("tool %s exceeded %s budget", e.Tool, e.Limit)
}
