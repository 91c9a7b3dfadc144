// Package retry runs a fallible operation a bounded number of times with
// exponential backoff. Delays are deterministic (no jitter) and every error
// is treated as retryable; callers decide which failures reach this layer.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Do attempts op up to maxAttempts times. The delay before attempt n (n>=2)
// is initialDelay * 2^(n-2); the wait respects ctx cancellation. Errors on
// non-final attempts are logged and swallowed, the final error propagates
// unmodified.
func Do(ctx context.Context, maxAttempts int, initialDelay time.Duration, op func() error) error {
	_, err := DoWithResult(ctx, maxAttempts, initialDelay, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](ctx context.Context, maxAttempts int, initialDelay time.Duration, op func() (T, error)) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := initialDelay << (attempt - 2)
			slog.Debug("retry: waiting before next attempt",
				"attempt", attempt, "max_attempts", maxAttempts, "delay", delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := op()
		if err == nil {
			if attempt > 1 {
				slog.Info("retry: operation succeeded after retries", "attempt", attempt)
			}
			return result, nil
		}

		lastErr = err
		if attempt < maxAttempts {
			slog.Warn("retry: attempt failed",
				"attempt", attempt, "max_attempts", maxAttempts, "error", err)
		}
	}

	return zero, lastErr
}
