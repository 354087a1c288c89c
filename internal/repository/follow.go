package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxim190404/foodgram-st/internal/models"
	"gorm.io/gorm"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// Delete reports whether an edge was removed.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete follow: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}
	return count > 0, nil
}

// FollowedAmong returns the subset of candidates that followerID follows.
func (r *FollowRepository) FollowedAmong(ctx context.Context, followerID uint, candidates []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool)
	if len(candidates) == 0 {
		return followed, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id IN ?", followerID, candidates).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to check follow status: %w", err)
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

func (r *FollowRepository) GetFollowing(ctx context.Context, userID uint, offset, limit int) ([]*models.User, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count following: %w", err)
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.id").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get following: %w", err)
	}
	return users, count, nil
}
