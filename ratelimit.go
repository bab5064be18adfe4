package courtside

import (
	"context"
	"sync"
	"time"
)

// rateLimiter tracks a sliding one-minute window of stream-open timestamps.
type rateLimiter struct {
	mu     sync.Mutex
	rpm    int
	window []time.Time
}

// RateLimitOption configures WithRateLimit.
type RateLimitOption func(*rateLimiter)

// RPM sets the maximum stream opens per minute.
func RPM(n int) RateLimitOption {
	return func(r *rateLimiter) { r.rpm = n }
}

// WithRateLimit wraps a stream with proactive rate limiting: stream opens
// beyond the per-minute budget block until the window slides. Compose with
// other wrappers:
//
//	stream = courtside.WithRateLimit(provider.Stream(defs), courtside.RPM(60))
//	stream = courtside.WithRateLimit(courtside.WithRetry(provider.Stream(defs)), courtside.RPM(60))
func WithRateLimit(stream StreamFunc, opts ...RateLimitOption) StreamFunc {
	r := &rateLimiter{}
	for _, opt := range opts {
		opt(r)
	}

	return func(ctx context.Context, history []Turn) (<-chan Chunk, error) {
		if err := r.wait(ctx); err != nil {
			return nil, err
		}
		return stream(ctx, history)
	}
}

// wait blocks until the budget allows one more stream open, then records it.
// Returns ctx.Err() if the context is cancelled while waiting.
func (r *rateLimiter) wait(ctx context.Context) error {
	if r.rpm <= 0 {
		return nil
	}
	for {
		r.mu.Lock()
		now := time.Now()
		r.window = pruneBefore(r.window, now.Add(-time.Minute))

		if len(r.window) < r.rpm {
			r.window = append(r.window, now)
			r.mu.Unlock()
			return nil
		}

		wait := r.window[0].Add(time.Minute).Sub(now)
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		r.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// pruneBefore removes entries older than cutoff from a sorted time slice.
func pruneBefore(s []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(s) && s[i].Before(cutoff) {
		i++
	}
	return s[i:]
}
