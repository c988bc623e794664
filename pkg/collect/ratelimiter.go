package collect

import (
	"context"
	"errors"
	"sync"
	"time"
)

// RateLimiter gates outbound target calls.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// reservingLimiter hands each caller the next free send slot under a lock,
// then lets the caller sleep until its slot outside the lock. Idle time earns
// back burst credit, so a run that pauses for judge calls can catch up.
type reservingLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	credit   time.Duration
	next     time.Time
}

// NewRateLimiter spaces calls interval = 1/rps apart, allowing bursts of up
// to burst immediate calls after idle periods.
func NewRateLimiter(rps float64, burst int) (RateLimiter, error) {
	if rps <= 0 {
		return nil, errors.New("rate limiter: rps must be > 0")
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Duration(float64(time.Second) / rps)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &reservingLimiter{
		interval: interval,
		credit:   time.Duration(burst-1) * interval,
	}, nil
}

func (l *reservingLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	// Cap accumulated idle credit at the burst window.
	if floor := now.Add(-l.credit); l.next.Before(floor) {
		l.next = floor
	}
	slot := l.next
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
