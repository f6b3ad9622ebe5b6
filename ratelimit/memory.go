package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryLimiter keeps last-action timestamps in process memory. It is the
// default for single-instance deployments and for tests; expired entries are
// swept opportunistically on access so the map does not grow without bound.
type MemoryLimiter struct {
	mu     sync.Mutex
	last   map[string]time.Time
	window time.Duration
	clock  clockwork.Clock
}

// NewMemoryLimiter creates a limiter with the given cooldown window. A zero
// or negative window falls back to DefaultWindow.
func NewMemoryLimiter(window time.Duration, clock clockwork.Clock) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryLimiter{
		last:   make(map[string]time.Time),
		window: window,
		clock:  clock,
	}
}

// Check implements Limiter.
func (l *MemoryLimiter) Check(_ context.Context, userID string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.sweepLocked(now)

	last := l.last[userID]
	if CanProceed(last, now, l.window) {
		return true, 0, nil
	}
	return false, Remaining(last, now, l.window), nil
}

// Touch implements Limiter.
func (l *MemoryLimiter) Touch(_ context.Context, userID string) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.last[userID]
	l.last[userID] = l.clock.Now()
	return prev, nil
}

// Restore implements Limiter.
func (l *MemoryLimiter) Restore(_ context.Context, userID string, prev time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev.IsZero() {
		delete(l.last, userID)
		return nil
	}
	l.last[userID] = prev
	return nil
}

func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for id, ts := range l.last {
		if now.Sub(ts) >= l.window {
			delete(l.last, id)
		}
	}
}
