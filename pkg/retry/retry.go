// Package retry provides one reusable retry policy with exponential backoff
// and jitter, shared by every external call in the collection controller.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy configures retry behavior. The zero value is not usable; start from
// DefaultPolicy.
type Policy struct {
	// MaxAttempts includes the initial attempt.
	MaxAttempts int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the backoff between retries.
	MaxDelay time.Duration
	// Factor multiplies the delay after each attempt.
	Factor float64
	// JitterFactor is the maximum random jitter as a fraction of the delay.
	JitterFactor float64
	// Retryable decides whether an error is worth retrying. Nil means
	// nothing is retryable.
	Retryable func(error) bool
}

// DefaultPolicy retries rate-limit-shaped failures up to 4 attempts total.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:  4,
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		Factor:       2.0,
		JitterFactor: 0.2,
		Retryable:    retryable,
	}
}

// Do executes fn under the policy. Non-retryable errors return immediately;
// retryable errors are retried until the attempt ceiling, then the last
// error is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.jittered(delay)):
		}

		if p.Factor > 1 {
			delay = time.Duration(float64(delay) * p.Factor)
		}
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

func (p Policy) jittered(delay time.Duration) time.Duration {
	if p.JitterFactor <= 0 {
		return delay
	}
	jitter := time.Duration(rand.Float64() * p.JitterFactor * float64(delay))
	return delay + jitter
}
