package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

// MemoryStore keeps the comment tree in process memory: a flat map keyed by
// comment id plus per-post and per-parent indexes. It backs the "memory"
// store driver for dependency-free runs and every engine test.
type MemoryStore struct {
	mu       sync.RWMutex
	comments map[string]*models.Comment
	byPost   map[string][]string
	byParent map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[string]*models.Comment),
		byPost:   make(map[string][]string),
		byParent: make(map[string][]string),
	}
}

// ListByPost implements Store.
func (s *MemoryStore) ListByPost(_ context.Context, postID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0, len(s.byPost[postID]))
	for _, id := range s.byPost[postID] {
		if c, ok := s.comments[id]; ok {
			out = append(out, *copyComment(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetComment implements Store.
func (s *MemoryStore) GetComment(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyComment(c), nil
}

// CreateComment implements Store.
func (s *MemoryStore) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	stored := copyComment(c)
	s.comments[stored.ID] = stored
	s.byPost[stored.PostID] = append(s.byPost[stored.PostID], stored.ID)
	if stored.ParentID != nil {
		s.byParent[*stored.ParentID] = append(s.byParent[*stored.ParentID], stored.ID)
	}
	return nil
}

// DeleteCascading implements Store.
func (s *MemoryStore) DeleteCascading(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return 0, ErrNotFound
	}

	doomed := append([]string{id}, s.byParent[id]...)
	for _, did := range doomed {
		victim, ok := s.comments[did]
		if !ok {
			continue
		}
		delete(s.comments, did)
		s.byPost[victim.PostID] = remove(s.byPost[victim.PostID], did)
		if victim.ParentID != nil {
			s.byParent[*victim.ParentID] = remove(s.byParent[*victim.ParentID], did)
		}
	}
	delete(s.byParent, id)
	return int64(len(doomed)), nil
}

// ToggleVote implements Store.
func (s *MemoryStore) ToggleVote(_ context.Context, commentID, userID string, t models.VoteType) ([]models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Votes = models.ToggleVote(c.Votes, commentID, userID, t, time.Now().UTC())
	return append([]models.Vote(nil), c.Votes...), nil
}

// copyComment deep-copies a comment so callers can't alias internal state.
func copyComment(c *models.Comment) *models.Comment {
	out := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		out.ParentID = &pid
	}
	out.Votes = append([]models.Vote(nil), c.Votes...)
	return &out
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
