package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
)

// GormStore is the MySQL-backed store. Cascading deletes and vote toggles run
// inside transactions so callers never observe a half-applied mutation.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an initialized *gorm.DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListByPost implements Store.
func (s *GormStore) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Preload("Votes").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// GetComment implements Store.
func (s *GormStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Preload("Votes").First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComment implements Store.
func (s *GormStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(c).Error
}

// DeleteCascading implements Store.
func (s *GormStore) DeleteCascading(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		doomed := []string{id}
		var replyIDs []string
		if err := tx.Model(&models.Comment{}).
			Where("parent_id = ?", id).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		doomed = append(doomed, replyIDs...)

		if err := tx.Where("comment_id IN ?", doomed).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", doomed).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ToggleVote implements Store.
func (s *GormStore) ToggleVote(ctx context.Context, commentID, userID string, t models.VoteType) ([]models.Vote, error) {
	var votes []models.Vote
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.First(&c, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing models.Vote
		err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{CommentID: commentID, UserID: userID, Type: t, CreatedAt: time.Now().UTC()}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Type == t:
			// Same direction again toggles the vote off.
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		default:
			// Opposite direction replaces in a single update.
			if err := tx.Model(&existing).Update("type", t).Error; err != nil {
				return err
			}
		}

		return tx.Where("comment_id = ?", commentID).Find(&votes).Error
	})
	if err != nil {
		return nil, err
	}
	return votes, nil
}
