package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxim190404/foodgram-st/internal/models"
	"gorm.io/gorm"
)

// MembershipRepository stores a (user, recipe) set such as favorites or the shopping
// cart. Rows are hard-deleted so a pair can be added again later.
type MembershipRepository[T any] struct {
	db     *gorm.DB
	name   string
	newRow func(userID, recipeID uint) *T
}

func NewFavoriteRepository(db *gorm.DB) *MembershipRepository[models.Favorite] {
	return &MembershipRepository[models.Favorite]{
		db:   db,
		name: "favorite",
		newRow: func(userID, recipeID uint) *models.Favorite {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewShoppingCartRepository(db *gorm.DB) *MembershipRepository[models.ShoppingCart] {
	return &MembershipRepository[models.ShoppingCart]{
		db:   db,
		name: "shopping cart entry",
		newRow: func(userID, recipeID uint) *models.ShoppingCart {
			return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (r *MembershipRepository[T]) Add(ctx context.Context, userID, recipeID uint) error {
	if err := r.db.WithContext(ctx).Create(r.newRow(userID, recipeID)).Error; err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create %s: %w", r.name, err)
	}
	return nil
}

// Remove reports whether a row was deleted.
func (r *MembershipRepository[T]) Remove(ctx context.Context, userID, recipeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(new(T))
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete %s: %w", r.name, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *MembershipRepository[T]) Contains(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", r.name, err)
	}
	return count > 0, nil
}

// ContainedAmong returns which of recipeIDs the user has in this set.
func (r *MembershipRepository[T]) ContainedAmong(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	contained := make(map[uint]bool)
	if len(recipeIDs) == 0 {
		return contained, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", r.name, err)
	}
	for _, id := range ids {
		contained[id] = true
	}
	return contained, nil
}

func (r *MembershipRepository[T]) RecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ?", userID).
		Order("id").
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s recipes: %w", r.name, err)
	}
	return ids, nil
}
