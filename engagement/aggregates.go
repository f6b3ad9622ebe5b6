package engagement

import (
	"sort"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

// Aggregates is a comment's vote tally together with the requesting viewer's
// own vote, nil when the viewer has not voted or is anonymous.
type Aggregates struct {
	Upvotes    int              `json:"upvotes"`
	Downvotes  int              `json:"downvotes"`
	NetScore   int              `json:"net_score"`
	ViewerVote *models.VoteType `json:"viewer_vote,omitempty"`
}

// Aggregate reduces a vote list for the given viewer.
func Aggregate(votes []models.Vote, viewerID string) Aggregates {
	var agg Aggregates
	for _, v := range votes {
		switch v.Type {
		case models.VoteUp:
			agg.Upvotes++
		case models.VoteDown:
			agg.Downvotes++
		}
		if viewerID != "" && v.UserID == viewerID {
			t := v.Type
			agg.ViewerVote = &t
		}
	}
	agg.NetScore = agg.Upvotes - agg.Downvotes
	return agg
}

// AnnotatedComment is a comment with its aggregates attached for display.
type AnnotatedComment struct {
	models.Comment
	Aggregates
}

// Thread is a top-level comment with its replies in chronological order.
type Thread struct {
	AnnotatedComment
	Replies []AnnotatedComment `json:"replies"`
}

// BuildThreads groups a flat comment list into ranked threads: replies are
// attached to their parent, top-level comments are ordered by descending net
// score. Replies whose parent is no longer in the list (a concurrent cascade
// delete observed through a stale read) are dropped; the next refresh settles
// the view.
func BuildThreads(comments []models.Comment, viewerID string) []Thread {
	index := make(map[string]int, len(comments))
	threads := make([]Thread, 0, len(comments))

	for _, c := range comments {
		if c.IsReply() {
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, Thread{
			AnnotatedComment: AnnotatedComment{Comment: c, Aggregates: Aggregate(c.Votes, viewerID)},
			Replies:          []AnnotatedComment{},
		})
	}

	for _, c := range comments {
		if !c.IsReply() {
			continue
		}
		i, ok := index[*c.ParentID]
		if !ok {
			continue
		}
		threads[i].Replies = append(threads[i].Replies, AnnotatedComment{
			Comment:    c,
			Aggregates: Aggregate(c.Votes, viewerID),
		})
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].NetScore > threads[j].NetScore
	})
	return threads
}
