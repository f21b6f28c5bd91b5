// Package ratelimit enforces a minimum spacing between outbound calls to a
// given external service.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter tracks the earliest allowed start time per service and delays
// callers so that two calls to the same service are never closer together
// than the configured minimum interval.
//
// Acquire reserves the caller's slot under the lock before sleeping, so
// concurrent callers to the same service land on distinct slots.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	next map[string]time.Time
}

// New creates a Limiter with the given minimum interval between calls to the
// same service. A non-positive interval disables all waiting.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		next:     make(map[string]time.Time),
	}
}

// Acquire blocks until the service's minimum interval has elapsed since the
// previous permitted call, records the new call time, and returns. It only
// returns early, with the context's error, when the context is cancelled.
func (l *Limiter) Acquire(ctx context.Context, service string) error {
	if l == nil || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next[service]
	if slot.Before(now) {
		slot = now
	}
	l.next[service] = slot.Add(l.interval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
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
