package engagement

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel failures with no extra payload.
var (
	// ErrUnauthenticated means no viewer identity was attached; the caller
	// should send the user to sign-in rather than show an inline error.
	ErrUnauthenticated = errors.New("sign in to participate in the discussion")

	// ErrForbidden means the requester is neither the comment's author nor
	// an admin.
	ErrForbidden = errors.New("you can only delete your own comments")

	// ErrEmptyText rejects blank submissions before anything else runs.
	ErrEmptyText = errors.New("comment text cannot be empty")

	// ErrInvalidParent rejects a parent_id that does not reference an
	// existing top-level comment. Nesting is exactly two levels; replying
	// to a reply is refused at this boundary, not silently flattened.
	ErrInvalidParent = errors.New("replies can only target a top-level comment")
)

// RateLimitedError reports an active cooldown. RetryAt is fixed; the seconds
// shown to the user are derived from it on every read, so the countdown stays
// live without any separate timer state.
type RateLimitedError struct {
	RetryAt   time.Time
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("you are commenting too fast, try again in %d seconds", e.Seconds())
}

// Seconds returns the remaining wait rounded up to whole seconds.
func (e *RateLimitedError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// RemainingAt recomputes the wait for an arbitrary clock reading; it reaches
// zero exactly when the window elapses.
func (e *RateLimitedError) RemainingAt(now time.Time) time.Duration {
	if d := e.RetryAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// TooLongError reports a text over the bound for its kind.
type TooLongError struct {
	Kind   string // "comment" or "reply"
	Limit  int
	Length int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("%s is too long: %d characters, the limit is %d", e.Kind, e.Length, e.Limit)
}

// SpamRejectedError carries the classifier's human-readable reason.
type SpamRejectedError struct {
	Reason string
}

func (e *SpamRejectedError) Error() string {
	return "comment rejected: " + e.Reason
}

// StoreError wraps a backend failure. State has already been rolled back when
// the caller sees one; retrying is safe.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("comment store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
