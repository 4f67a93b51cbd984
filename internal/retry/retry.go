// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts.
//
// Information Hiding:
// - Attempt counting and backoff timing hidden
// - Cancellation during backoff handled here, not by callers
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how often and how patiently to retry.
// The zero value makes a single attempt with no backoff.
type Policy struct {
	Attempts int
	Backoff  time.Duration

	// OnRetry, if set, is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Fixed returns a policy with a constant backoff between attempts.
func Fixed(attempts int, backoff time.Duration) Policy {
	return Policy{Attempts: attempts, Backoff: backoff}
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Do calls fn until it succeeds or the attempts are exhausted, returning the
// last error. A cancelled context stops the backoff early; the returned error
// then wraps both the context error and the last failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			return fmt.Errorf("%w (last error: %w)", err, lastErr)
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
