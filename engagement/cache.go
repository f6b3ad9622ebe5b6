package engagement

import (
	"sync"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

// OpStatus is the lifecycle of one optimistic mutation.
type OpStatus int

const (
	OpPending OpStatus = iota
	OpCommitted
	OpFailed
)

// Operation is one in-flight mutation against a post's cached thread. The
// snapshot taken at Begin is the rollback point; Commit discards it, Rollback
// restores it wholesale so no partially-applied state can survive.
type Operation struct {
	PostID   string
	Status   OpStatus
	snapshot []models.Comment
	tracked  bool
	gate     *sync.Mutex
}

func (op *Operation) release() {
	if op.gate != nil {
		op.gate.Unlock()
		op.gate = nil
	}
}

// ThreadCache is the local, possibly stale copy of each post's comment list.
// The authoritative tree lives in the store; the cache is mutated from each
// operation's own result rather than re-fetched, and only refreshed on an
// explicit ListComments.
type ThreadCache struct {
	mu      sync.Mutex
	threads map[string][]models.Comment
	gates   map[string]*sync.Mutex
}

// NewThreadCache creates an empty cache.
func NewThreadCache() *ThreadCache {
	return &ThreadCache{
		threads: make(map[string][]models.Comment),
		gates:   make(map[string]*sync.Mutex),
	}
}

// Put replaces the cached list for a post with a fresh server read.
func (tc *ThreadCache) Put(postID string, comments []models.Comment) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.threads[postID] = copyComments(comments)
}

// Get returns a copy of the cached list and whether the post is tracked.
func (tc *ThreadCache) Get(postID string) ([]models.Comment, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	comments, ok := tc.threads[postID]
	if !ok {
		return nil, false
	}
	return copyComments(comments), true
}

// Begin snapshots a post's cached list ahead of an optimistic mutation.
// Operations on the same post run one at a time: Begin holds the post's gate
// until Commit or Rollback, so one request's rollback can never clobber
// another's committed update. Posts that have never been listed are not
// tracked; their Operation still holds the gate but its snapshot is empty and
// cache edits under it are no-ops.
func (tc *ThreadCache) Begin(postID string) *Operation {
	tc.mu.Lock()
	gate, ok := tc.gates[postID]
	if !ok {
		gate = &sync.Mutex{}
		tc.gates[postID] = gate
	}
	tc.mu.Unlock()

	gate.Lock()

	tc.mu.Lock()
	defer tc.mu.Unlock()
	comments, tracked := tc.threads[postID]
	op := &Operation{PostID: postID, Status: OpPending, tracked: tracked, gate: gate}
	if tracked {
		op.snapshot = copyComments(comments)
	}
	return op
}

// Append adds a comment to the post's cached list.
func (tc *ThreadCache) Append(postID string, c models.Comment) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, ok := tc.threads[postID]; !ok {
		return
	}
	tc.threads[postID] = append(tc.threads[postID], *copyOne(&c))
}

// Replace swaps a provisional entry for the server-confirmed comment.
func (tc *ThreadCache) Replace(postID, id string, confirmed models.Comment) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for i, c := range tc.threads[postID] {
		if c.ID == id {
			tc.threads[postID][i] = *copyOne(&confirmed)
			return
		}
	}
}

// Remove drops a comment and, if it is top-level, its replies from the cached
// list. It returns the number of entries removed.
func (tc *ThreadCache) Remove(postID, id string) int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	comments, ok := tc.threads[postID]
	if !ok {
		return 0
	}
	kept := comments[:0]
	removed := 0
	for _, c := range comments {
		if c.ID == id || (c.ParentID != nil && *c.ParentID == id) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	tc.threads[postID] = kept
	return removed
}

// SetVotes overwrites a cached comment's vote list with server truth.
func (tc *ThreadCache) SetVotes(postID, commentID string, votes []models.Vote) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for i := range tc.threads[postID] {
		if tc.threads[postID][i].ID == commentID {
			tc.threads[postID][i].Votes = append([]models.Vote(nil), votes...)
			return
		}
	}
}

// FindPost returns the post a cached comment belongs to.
func (tc *ThreadCache) FindPost(commentID string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for postID, comments := range tc.threads {
		for _, c := range comments {
			if c.ID == commentID {
				return postID, true
			}
		}
	}
	return "", false
}

// Commit marks the operation confirmed, drops its rollback snapshot, and
// releases the post's gate.
func (tc *ThreadCache) Commit(op *Operation) {
	op.Status = OpCommitted
	op.snapshot = nil
	op.release()
}

// Rollback restores the post's cached list to its pre-operation state and
// releases the post's gate.
func (tc *ThreadCache) Rollback(op *Operation) {
	op.Status = OpFailed
	if op.tracked {
		tc.mu.Lock()
		tc.threads[op.PostID] = op.snapshot
		tc.mu.Unlock()
	}
	op.snapshot = nil
	op.release()
}

func copyComments(comments []models.Comment) []models.Comment {
	out := make([]models.Comment, len(comments))
	for i := range comments {
		out[i] = *copyOne(&comments[i])
	}
	return out
}

func copyOne(c *models.Comment) *models.Comment {
	out := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		out.ParentID = &pid
	}
	out.Votes = append([]models.Vote(nil), c.Votes...)
	return &out
}
