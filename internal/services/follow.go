package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/sirupsen/logrus"
)

// followEdges is the part of the follow repository the service needs.
type followEdges interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowing(ctx context.Context, userID uint, offset, limit int) ([]*models.User, int64, error)
}

type FollowService struct {
	userRepo   *repository.UserRepository
	followRepo followEdges
	presenter  *presenter
	producer   queue.EventPublisher
	logger     *logger.Logger
}

func NewFollowService(
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	recipeRepo *repository.RecipeRepository,
	producer queue.EventPublisher,
	logger *logger.Logger,
) *FollowService {
	return &FollowService{
		userRepo:   userRepo,
		followRepo: followRepo,
		presenter:  newPresenter(followRepo, nil, nil, recipeRepo),
		producer:   producer,
		logger:     logger,
	}
}

// Follow subscribes followerID to targetID and returns the target with its newest
// recipes (recipesLimit < 1 returns all of them).
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint, recipesLimit int, baseURL string) (*UserWithRecipes, error) {
	if followerID == targetID {
		return nil, apperr.ErrSelfFollow
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return nil, apperr.ErrUserNotFound
	}

	// existing edge
	following, err := s.followRepo.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow status: %w", err)
	}
	if following {
		return nil, apperr.ErrDuplicateFollow
	}

	follow := &models.Follow{FollowerID: followerID, FollowingID: targetID}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		// lost a race with a concurrent request
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateFollow
		}
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}

	publish(ctx, s.producer, s.logger, userKey(followerID), queue.NewEvent(queue.EventFollowCreated, queue.FollowEventData{
		FollowerID:  followerID,
		FollowingID: targetID,
	}))

	s.logger.WithFields(logrus.Fields{
		"follower_id":  followerID,
		"following_id": targetID,
	}).Info("User followed successfully")

	views, err := s.presenter.usersWithRecipes(ctx, []*models.User{target}, recipesLimit, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build user view: %w", err)
	}
	return &views[0], nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return apperr.ErrUserNotFound
	}

	removed, err := s.followRepo.Delete(ctx, followerID, targetID)
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	if !removed {
		return apperr.ErrNotFollowing
	}

	publish(ctx, s.producer, s.logger, userKey(followerID), queue.NewEvent(queue.EventFollowDeleted, queue.FollowEventData{
		FollowerID:  followerID,
		FollowingID: targetID,
	}))

	s.logger.WithFields(logrus.Fields{
		"follower_id":  followerID,
		"following_id": targetID,
	}).Info("User unfollowed successfully")
	return nil
}

// Subscriptions lists the authors userID follows, ordered by id.
func (s *FollowService) Subscriptions(ctx context.Context, userID uint, page Pagination, recipesLimit int, baseURL string) (*Page[UserWithRecipes], error) {
	users, count, err := s.followRepo.GetFollowing(ctx, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriptions: %w", err)
	}

	views, err := s.presenter.usersWithRecipes(ctx, users, recipesLimit, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build user views: %w", err)
	}
	return &Page[UserWithRecipes]{Count: count, Items: views}, nil
}

func userKey(id uint) string {
	return "user:" + strconv.FormatUint(uint64(id), 10)
}
