// Package store defines the durable contract for comments and votes. The
// engagement engine is the only caller; it never reaches past this interface,
// so rate-limit and spam checks cannot be bypassed by writing directly.
package store

import (
	"context"
	"errors"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

// ErrNotFound is returned when a comment id does not exist.
var ErrNotFound = errors.New("comment not found")

// Store is the durable CRUD surface for the engagement engine.
type Store interface {
	// ListByPost returns every comment on a post, top-level and replies
	// alike, with votes attached, ordered oldest first.
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)

	// GetComment returns a single comment with its votes.
	GetComment(ctx context.Context, id string) (*models.Comment, error)

	// CreateComment persists a fully-validated comment.
	CreateComment(ctx context.Context, c *models.Comment) error

	// DeleteCascading removes a comment and, if it is top-level, all of its
	// replies and their votes in one logical operation. It returns the
	// number of comments removed.
	DeleteCascading(ctx context.Context, id string) (int64, error)

	// ToggleVote applies toggle semantics for (commentID, userID) and
	// returns the comment's full vote list after the change.
	ToggleVote(ctx context.Context, commentID, userID string, t models.VoteType) ([]models.Vote, error)
}
