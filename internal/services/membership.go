package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/sirupsen/logrus"
)

// membershipSet is the part of a membership repository the service needs.
type membershipSet interface {
	Add(ctx context.Context, userID, recipeID uint) error
	Remove(ctx context.Context, userID, recipeID uint) (bool, error)
	Contains(ctx context.Context, userID, recipeID uint) (bool, error)
}

// MembershipService toggles a recipe in one of the user's lists: favorites or the
// shopping cart.
type MembershipService struct {
	name       string
	set        membershipSet
	recipeRepo *repository.RecipeRepository
	errPresent error
	errMissing error
	addedEvent queue.EventType
	goneEvent  queue.EventType
	producer   queue.EventPublisher
	logger     *logger.Logger
}

func NewFavoriteService(favoriteRepo *repository.MembershipRepository[models.Favorite], recipeRepo *repository.RecipeRepository, producer queue.EventPublisher, logger *logger.Logger) *MembershipService {
	return &MembershipService{
		name:       "favorites",
		set:        favoriteRepo,
		recipeRepo: recipeRepo,
		errPresent: apperr.ErrAlreadyFavorited,
		errMissing: apperr.ErrNotFavorited,
		addedEvent: queue.EventFavoriteAdded,
		goneEvent:  queue.EventFavoriteRemoved,
		producer:   producer,
		logger:     logger,
	}
}

func NewShoppingCartService(cartRepo *repository.MembershipRepository[models.ShoppingCart], recipeRepo *repository.RecipeRepository, producer queue.EventPublisher, logger *logger.Logger) *MembershipService {
	return &MembershipService{
		name:       "shopping_cart",
		set:        cartRepo,
		recipeRepo: recipeRepo,
		errPresent: apperr.ErrAlreadyInCart,
		errMissing: apperr.ErrNotInCart,
		addedEvent: queue.EventCartAdded,
		goneEvent:  queue.EventCartRemoved,
		producer:   producer,
		logger:     logger,
	}
}

func (s *MembershipService) Add(ctx context.Context, userID, recipeID uint, baseURL string) (*RecipeSummary, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return nil, apperr.ErrRecipeNotFound
	}

	present, err := s.set.Contains(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", s.name, err)
	}
	if present {
		return nil, s.errPresent
	}

	if err := s.set.Add(ctx, userID, recipeID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.errPresent
		}
		return nil, fmt.Errorf("failed to add to %s: %w", s.name, err)
	}

	publish(ctx, s.producer, s.logger, userKey(userID), queue.NewEvent(s.addedEvent, queue.MembershipEventData{
		UserID:   userID,
		RecipeID: recipeID,
	}))

	s.logger.WithFields(logrus.Fields{
		"list":      s.name,
		"user_id":   userID,
		"recipe_id": recipeID,
	}).Info("Recipe added to list")

	summary := recipeSummary(recipe, baseURL)
	return &summary, nil
}

func (s *MembershipService) Remove(ctx context.Context, userID, recipeID uint) error {
	exists, err := s.recipeRepo.Exists(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("failed to check recipe: %w", err)
	}
	if !exists {
		return apperr.ErrRecipeNotFound
	}

	removed, err := s.set.Remove(ctx, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove from %s: %w", s.name, err)
	}
	if !removed {
		return s.errMissing
	}

	publish(ctx, s.producer, s.logger, userKey(userID), queue.NewEvent(s.goneEvent, queue.MembershipEventData{
		UserID:   userID,
		RecipeID: recipeID,
	}))

	s.logger.WithFields(logrus.Fields{
		"list":      s.name,
		"user_id":   userID,
		"recipe_id": recipeID,
	}).Info("Recipe removed from list")
	return nil
}
