package courtside

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// retryConfig holds tuning for WithRetry.
type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// RetryOption configures WithRetry.
type RetryOption func(*retryConfig)

// RetryMaxAttempts sets the maximum number of attempts (default: 3).
func RetryMaxAttempts(n int) RetryOption {
	return func(r *retryConfig) { r.maxAttempts = n }
}

// RetryBaseDelay sets the initial backoff delay before the second attempt
// (default: 1s). Each subsequent delay doubles.
func RetryBaseDelay(d time.Duration) RetryOption {
	return func(r *retryConfig) { r.baseDelay = d }
}

// RetryLogger sets the structured logger for retry events. When set, retries
// log at WARN level and final failures after exhausting attempts log at ERROR.
func RetryLogger(l *slog.Logger) RetryOption {
	return func(r *retryConfig) { r.logger = l }
}

// WithRetry wraps a stream with automatic retry on transient HTTP errors
// (429, 503). Only the stream-open call is retried: once a chunk channel has
// been handed out, mid-stream errors pass through so no content is duplicated.
// Retries use exponential backoff with jitter; when the error carries a
// Retry-After duration, the delay is at least that long.
//
//	stream = courtside.WithRetry(provider.Stream(defs))
//	stream = courtside.WithRetry(provider.Stream(defs), courtside.RetryMaxAttempts(5))
func WithRetry(stream StreamFunc, opts ...RetryOption) StreamFunc {
	cfg := retryConfig{maxAttempts: 3, baseDelay: time.Second, logger: nopLogger}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, history []Turn) (<-chan Chunk, error) {
		var last error
		for i := 0; i < cfg.maxAttempts; i++ {
			ch, err := stream(ctx, history)
			if err == nil || !isTransient(err) {
				return ch, err
			}
			last = err
			cfg.logger.Warn("retrying transient error",
				"status", statusOf(err),
				"attempt", i+1,
				"max_attempts", cfg.maxAttempts)
			if i < cfg.maxAttempts-1 {
				timer := time.NewTimer(retryDelay(cfg.baseDelay, i, err))
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
			}
		}
		cfg.logger.Error("all retry attempts exhausted",
			"attempts", cfg.maxAttempts,
			"error", last)
		return nil, last
	}
}

// isTransient reports whether err is a retryable HTTP error (429 or 503).
func isTransient(err error) bool {
	var e *ErrHTTP
	return errors.As(err, &e) && (e.Status == 429 || e.Status == 503)
}

// statusOf extracts the HTTP status code from an ErrHTTP, or 0.
func statusOf(err error) int {
	var e *ErrHTTP
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// retryAfterOf extracts the Retry-After duration from an ErrHTTP, or 0.
func retryAfterOf(err error) time.Duration {
	var e *ErrHTTP
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// retryDelay computes the delay before retry attempt i, using exponential
// backoff as a floor and the server's Retry-After value (if present) as a
// minimum. The effective delay is max(backoff, retryAfter).
func retryDelay(base time.Duration, i int, err error) time.Duration {
	backoff := retryBackoff(base, i)
	if ra := retryAfterOf(err); ra > backoff {
		return ra
	}
	return backoff
}

// retryBackoff returns the delay for retry i (0-indexed).
// Exponential: base * 2^i, plus up to 50% random jitter.
func retryBackoff(base time.Duration, i int) time.Duration {
	exp := base * (1 << i)
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp + jitter
}
