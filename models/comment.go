package models

import "time"

// Text length bounds. Replies get a slightly larger allowance so that quoting
// part of the parent does not eat into the writer's budget.
const (
	MaxTopLevelTextLen = 200
	MaxReplyTextLen    = 250
)

// Comment is a reader comment attached to a published post. Threads are two
// levels deep: a comment either has no parent (top-level) or references a
// top-level comment. Author fields are a snapshot of the identity provider's
// payload taken at creation time; there is no local users table.
type Comment struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	PostID      string    `gorm:"index;size:64;not null" json:"post_id"`
	ParentID    *string   `gorm:"index;size:36" json:"parent_id,omitempty"`
	AuthorID    string    `gorm:"index;size:64;not null" json:"author_id"`
	AuthorName  string    `gorm:"size:64" json:"author_name"`
	AuthorImage string    `gorm:"size:512" json:"author_image"`
	Text        string    `gorm:"size:250;not null" json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	Votes       []Vote    `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE;" json:"votes"`
}

// IsReply reports whether the comment belongs under a top-level comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// MaxTextLen returns the length bound that applies to this comment's kind.
func (c *Comment) MaxTextLen() int {
	if c.IsReply() {
		return MaxReplyTextLen
	}
	return MaxTopLevelTextLen
}
