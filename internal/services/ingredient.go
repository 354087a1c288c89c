package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/pkg/cache"
	"github.com/maxim190404/foodgram-st/pkg/logger"
)

const ingredientCachePrefix = "ingredients:"

// JSONCache is the part of the Redis client the catalog uses. GetJSON returns
// cache.ErrMiss for absent keys.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type IngredientService struct {
	ingredientRepo *repository.IngredientRepository
	cache          JSONCache
	cacheTTL       time.Duration
	logger         *logger.Logger
}

func NewIngredientService(ingredientRepo *repository.IngredientRepository, cache JSONCache, cacheTTL time.Duration, logger *logger.Logger) *IngredientService {
	return &IngredientService{
		ingredientRepo: ingredientRepo,
		cache:          cache,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

// List returns the ingredients whose name starts with namePrefix, ignoring case.
// Results are cached per prefix; cache failures fall through to the database.
func (s *IngredientService) List(ctx context.Context, namePrefix string) ([]*models.Ingredient, error) {
	key := ingredientCachePrefix + strings.ToLower(namePrefix)

	var cached []*models.Ingredient
	err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil && cached != nil:
		return cached, nil
	case err != nil && !errors.Is(err, cache.ErrMiss):
		s.logger.WithError(err).WithField("key", key).Warn("Failed to read ingredient cache")
	}

	ingredients, err := s.ingredientRepo.SearchByPrefix(ctx, namePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	if ingredients == nil {
		ingredients = []*models.Ingredient{}
	}

	if err := s.cache.SetJSON(ctx, key, ingredients, s.cacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to write ingredient cache")
	}
	return ingredients, nil
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	ingredient, err := s.ingredientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	if ingredient == nil {
		return nil, apperr.ErrIngredientNotFound
	}
	return ingredient, nil
}
