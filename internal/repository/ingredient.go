package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maxim190404/foodgram-st/internal/models"
	"gorm.io/gorm"
)

type IngredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

func (r *IngredientRepository) Create(ctx context.Context, ingredients ...*models.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(ingredients).Error; err != nil {
		return fmt.Errorf("failed to create ingredients: %w", err)
	}
	return nil
}

func (r *IngredientRepository) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ingredient, nil
}

// SearchByPrefix matches names starting with prefix, ignoring case.
func (r *IngredientRepository) SearchByPrefix(ctx context.Context, prefix string) ([]*models.Ingredient, error) {
	db := r.db.WithContext(ctx)
	if prefix != "" {
		db = db.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []*models.Ingredient
	if err := db.Order("name").Order("id").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	return ingredients, nil
}

// ExistingIDs looks up all ids in a single query and returns the ones present.
func (r *IngredientRepository) ExistingIDs(ctx context.Context, ids []uint) (map[uint]bool, error) {
	existing := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	var found []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to look up ingredients: %w", err)
	}
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
