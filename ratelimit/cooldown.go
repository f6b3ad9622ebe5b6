// Package ratelimit gates comment creation with a fixed per-user cooldown.
// The window is global for a user across posts and threads, and the remaining
// wait is always derived from the last-action timestamp rather than counted
// down, so it stays correct no matter how or when it is re-read.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the cooldown between two successful submissions by the
// same author.
const DefaultWindow = 60 * time.Second

// CanProceed reports whether an action at now is allowed given the timestamp
// of the user's previous successful action. A zero lastActionAt means the
// user has not acted inside the window.
func CanProceed(lastActionAt, now time.Time, window time.Duration) bool {
	if lastActionAt.IsZero() {
		return true
	}
	return !now.Before(lastActionAt.Add(window))
}

// Remaining returns how long the user still has to wait, or zero when the
// window has elapsed.
func Remaining(lastActionAt, now time.Time, window time.Duration) time.Duration {
	if lastActionAt.IsZero() {
		return 0
	}
	left := window - now.Sub(lastActionAt)
	if left < 0 {
		return 0
	}
	return left
}

// Limiter tracks the last successful submission per user.
//
// Touch is called before the durable write is dispatched so that a slow
// round-trip cannot admit a burst of near-simultaneous submissions; Restore
// undoes the Touch when that write fails.
type Limiter interface {
	// Check reports whether userID may submit now, and if not, how long
	// remains until it may.
	Check(ctx context.Context, userID string) (ok bool, remaining time.Duration, err error)
	// Touch records a submission for userID and returns the previous
	// timestamp (zero if none) for use with Restore.
	Touch(ctx context.Context, userID string) (prev time.Time, err error)
	// Restore resets userID's timestamp to prev, dropping it entirely when
	// prev is zero.
	Restore(ctx context.Context, userID string, prev time.Time) error
}
