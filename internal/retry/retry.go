// Package retry provides a small attempts/backoff combinator shared by
// provider calls and leaderboard fetches.
package retry

import (
	"fmt"
	"time"
)

// BackoffFunc returns the delay to wait before the given retry attempt.
// Attempts are zero-based: the delay after the first failure is backoff(0).
type BackoffFunc func(attempt int) time.Duration

// Exponential doubles the base delay on every attempt.
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// OnRetryFunc is invoked after each recoverable failure, before the backoff
// delay. Callers use it to log warnings.
type OnRetryFunc func(attempt int, err error)

// Do runs fn up to maxAttempts times, sleeping backoff(attempt) between
// attempts. The delay is a blocking sleep and is not cancellable. Returns
// the first successful value along with the number of attempts used, or the
// last error once attempts are exhausted.
func Do[T any](maxAttempts int, backoff BackoffFunc, fn func() (T, error), onRetry OnRetryFunc) (T, int, error) {
	var zero T
	if maxAttempts < 1 {
		return zero, 0, fmt.Errorf("retry: maxAttempts must be at least 1")
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		value, err := fn()
		if err == nil {
			return value, attempt + 1, nil
		}
		lastErr = err

		if attempt < maxAttempts-1 {
			if onRetry != nil {
				onRetry(attempt, err)
			}
			if backoff != nil {
				time.Sleep(backoff(attempt))
			}
		}
	}

	return zero, maxAttempts, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}
