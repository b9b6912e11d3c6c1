package backoff

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy bounds retries against an external service. The external
// embedding and generation calls are the pipeline's only asynchronous
// boundary, so the retry behavior is an explicit object rather than
// something buried in each caller.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Default returns the retry policy used for LLM and embedding calls.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the wait before the given attempt (1-based). Attempt 0
// waits nothing. Exponential with up to +/-25% jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay * time.Duration(1<<uint(attempt-1))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d >= 4 {
		jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
		d += jitter
	}
	return d
}

// Do runs fn up to MaxAttempts times, sleeping per Delay between
// attempts. It stops early when fn succeeds or ctx is done, and
// returns the last error on exhaustion.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(p.Delay(i)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}
