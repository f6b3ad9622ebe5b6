// Package engagement is the orchestrator for the discussion system: it
// validates input, enforces the per-author cooldown and the spam heuristics,
// applies deletion authorization, keeps threads ranked by net score, and
// reconciles the optimistic local thread copy with store truth.
package engagement

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/ratelimit"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/spam"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/store"
)

// Engine composes the spam classifier, the rate limiter, and the comment
// store. Comments are only ever created through it, so the abuse checks
// cannot be bypassed.
type Engine struct {
	store   store.Store
	limiter ratelimit.Limiter
	cache   *ThreadCache
	clock   clockwork.Clock
}

// New builds an engine over the given store and limiter. The clock stamps
// comments and cooldown deadlines; it should be the same one the limiter
// uses. A nil clock falls back to wall time.
func New(st store.Store, limiter ratelimit.Limiter, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		store:   st,
		limiter: limiter,
		cache:   NewThreadCache(),
		clock:   clock,
	}
}

// CanDelete is the deletion authorization predicate: the author of the
// comment, or any admin, and nobody else.
func CanDelete(requester models.User, authorID string) bool {
	if requester.IsAnonymous() {
		return false
	}
	return requester.ID == authorID || requester.IsAdmin()
}

// ListComments fetches a post's discussion from the store, refreshes the
// local copy, and returns ranked threads annotated for the viewer. This is
// the only operation that re-reads the store; every mutation updates the
// local copy from its own result instead.
func (e *Engine) ListComments(ctx context.Context, postID, viewerID string) ([]Thread, error) {
	comments, err := e.store.ListByPost(ctx, postID)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	e.cache.Put(postID, comments)
	return BuildThreads(comments, viewerID), nil
}

// CachedThreads serves a re-render from the local copy without touching the
// store. ok is false when the post has not been listed yet.
func (e *Engine) CachedThreads(postID, viewerID string) ([]Thread, bool) {
	comments, ok := e.cache.Get(postID)
	if !ok {
		return nil, false
	}
	return BuildThreads(comments, viewerID), true
}

// CreateComment validates, rate-limits, and spam-checks a submission, then
// persists it. The cooldown clock is touched before the store write is
// dispatched so a slow round-trip cannot admit a burst; a failed write
// restores both the clock and the local thread copy.
func (e *Engine) CreateComment(ctx context.Context, postID, text string, parentID *string, author models.User) (*models.Comment, error) {
	if author.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	comment := models.Comment{
		ID:          uuid.NewString(),
		PostID:      postID,
		ParentID:    parentID,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorImage: author.Image,
		Text:        text,
		CreatedAt:   e.clock.Now().UTC(),
	}

	if limit := comment.MaxTextLen(); len([]rune(text)) > limit {
		kind := "comment"
		if comment.IsReply() {
			kind = "reply"
		}
		return nil, &TooLongError{Kind: kind, Limit: limit, Length: len([]rune(text))}
	}

	if parentID != nil {
		parent, err := e.store.GetComment(ctx, *parentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidParent
		}
		if err != nil {
			return nil, &StoreError{Op: "create", Err: err}
		}
		if parent.IsReply() {
			return nil, ErrInvalidParent
		}
		if parent.PostID != postID {
			return nil, ErrInvalidParent
		}
	}

	ok, remaining, err := e.limiter.Check(ctx, author.ID)
	if err == nil && !ok {
		return nil, &RateLimitedError{
			RetryAt:   e.clock.Now().Add(remaining),
			Remaining: remaining,
		}
	}

	if verdict := spam.Classify(text); verdict.IsSpam {
		return nil, &SpamRejectedError{Reason: verdict.Reason}
	}

	prev, _ := e.limiter.Touch(ctx, author.ID)

	op := e.cache.Begin(postID)
	e.cache.Append(postID, comment)

	if err := e.store.CreateComment(ctx, &comment); err != nil {
		e.cache.Rollback(op)
		_ = e.limiter.Restore(ctx, author.ID, prev)
		return nil, &StoreError{Op: "create", Err: err}
	}

	e.cache.Replace(postID, comment.ID, comment)
	e.cache.Commit(op)
	return &comment, nil
}

// DeleteComment removes a comment for an authorized requester. Deleting a
// top-level comment takes its replies with it; deleting a reply removes only
// that reply. The returned count is the number of comments removed.
func (e *Engine) DeleteComment(ctx context.Context, commentID string, requester models.User) (int64, error) {
	if requester.IsAnonymous() {
		return 0, ErrUnauthenticated
	}

	comment, err := e.store.GetComment(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	if err != nil {
		return 0, &StoreError{Op: "delete", Err: err}
	}

	if !CanDelete(requester, comment.AuthorID) {
		return 0, ErrForbidden
	}

	op := e.cache.Begin(comment.PostID)
	e.cache.Remove(comment.PostID, commentID)

	removed, err := e.store.DeleteCascading(ctx, commentID)
	if err != nil {
		e.cache.Rollback(op)
		if errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
		return 0, &StoreError{Op: "delete", Err: err}
	}

	e.cache.Commit(op)
	return removed, nil
}

// ToggleVote applies toggle semantics for the requester and returns the
// recomputed aggregates so the caller can update its display immediately.
func (e *Engine) ToggleVote(ctx context.Context, commentID string, requester models.User, t models.VoteType) (Aggregates, error) {
	if requester.IsAnonymous() {
		return Aggregates{}, ErrUnauthenticated
	}

	postID, tracked := e.cache.FindPost(commentID)
	var op *Operation
	if tracked {
		// Stage the toggle locally so a re-render before the round-trip
		// completes already shows the new tally.
		op = e.cache.Begin(postID)
		if cached, ok := e.cache.Get(postID); ok {
			for _, c := range cached {
				if c.ID == commentID {
					local := models.ToggleVote(c.Votes, commentID, requester.ID, t, e.clock.Now().UTC())
					e.cache.SetVotes(postID, commentID, local)
					break
				}
			}
		}
	}

	votes, err := e.store.ToggleVote(ctx, commentID, requester.ID, t)
	if err != nil {
		if op != nil {
			e.cache.Rollback(op)
		}
		if errors.Is(err, store.ErrNotFound) {
			return Aggregates{}, err
		}
		return Aggregates{}, &StoreError{Op: "vote", Err: err}
	}

	if op != nil {
		e.cache.SetVotes(postID, commentID, votes)
		e.cache.Commit(op)
	}
	return Aggregate(votes, requester.ID), nil
}
