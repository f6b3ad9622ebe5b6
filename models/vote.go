package models

import "time"

// VoteType is the direction of a reaction.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether t is one of the two known directions.
func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

// Vote is a single user's reaction to a comment. The (comment, user) pair is
// unique: re-voting the same direction removes the vote, voting the opposite
// direction replaces it.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID string    `gorm:"size:36;not null;uniqueIndex:idx_comment_voter" json:"comment_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_comment_voter" json:"user_id"`
	Type      VoteType  `gorm:"size:8;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleVote applies toggle semantics to a vote list and returns the result:
// no existing vote adds one, a matching vote removes it, an opposing vote is
// replaced. The input slice is not modified, so the caller sees the change as
// a single atomic swap.
func ToggleVote(votes []Vote, commentID, userID string, t VoteType, at time.Time) []Vote {
	out := make([]Vote, 0, len(votes)+1)
	replaced := false
	for _, v := range votes {
		if v.UserID != userID {
			out = append(out, v)
			continue
		}
		if v.Type == t {
			// Same direction: toggle off by dropping the vote.
			replaced = true
			continue
		}
		v.Type = t
		out = append(out, v)
		replaced = true
	}
	if !replaced {
		out = append(out, Vote{CommentID: commentID, UserID: userID, Type: t, CreatedAt: at})
	}
	return out
}
