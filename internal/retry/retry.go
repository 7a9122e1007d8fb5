// Package retry implements the bounded-retry-with-backoff policy shared by
// the HTTP transport and the dashboard publish path.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy parameterizes a bounded retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns sensible defaults for network and publish calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Backoff returns the delay before the given attempt (1-based), doubling
// from BaseDelay with up to 20% jitter and capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	// Cryptographic randomness not needed for backoff jitter.
	jitter := delay * 0.2 * rand.Float64() // #nosec G404
	return time.Duration(delay + jitter)
}

// Retryable decides whether an error is worth another attempt. A non-zero
// minimum delay overrides the computed backoff when it is longer, which is
// how server-provided Retry-After waits are honored.
type Retryable func(err error) (retry bool, minDelay time.Duration)

// Do runs fn up to p.MaxAttempts times, sleeping between attempts. The
// final error is returned unwrapped so callers can still classify it.
func Do(ctx context.Context, p Policy, retryable Retryable, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := p.Backoff(attempt - 1)
			if _, min := retryable(lastErr); min > delay {
				delay = min
			}
			if delay > p.MaxDelay {
				delay = p.MaxDelay
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if retry, _ := retryable(lastErr); !retry {
			return lastErr
		}
	}
	return lastErr
}
