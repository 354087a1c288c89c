package services

import (
	"context"
	"fmt"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/models"
)

// IngredientLineInput is one requested (ingredient, amount) pair of a recipe.
type IngredientLineInput struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount"`
}

// IngredientCatalog answers which ingredient IDs exist.
type IngredientCatalog interface {
	ExistingIDs(ctx context.Context, ids []uint) (map[uint]bool, error)
}

// ValidateIngredientLines checks a recipe's ingredient lines before they replace the
// stored set. All IDs are looked up in one catalog query. The input is returned as is.
func ValidateIngredientLines(ctx context.Context, catalog IngredientCatalog, lines []IngredientLineInput) ([]IngredientLineInput, error) {
	if len(lines) == 0 {
		return nil, apperr.ErrEmptyIngredientList
	}

	seen := make(map[uint]struct{}, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ID]; dup {
			return nil, apperr.ErrDuplicateIngredient
		}
		seen[line.ID] = struct{}{}
		ids = append(ids, line.ID)
	}

	for _, line := range lines {
		if line.Amount < models.MinAmount || line.Amount > models.MaxAmount {
			return nil, &apperr.AmountOutOfRangeError{
				ID:     line.ID,
				Amount: line.Amount,
				Min:    models.MinAmount,
				Max:    models.MaxAmount,
			}
		}
	}

	existing, err := catalog.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up ingredients: %w", err)
	}
	for _, id := range ids {
		if !existing[id] {
			return nil, &apperr.UnknownIngredientError{ID: id}
		}
	}

	return lines, nil
}

func toRecipeIngredients(lines []IngredientLineInput) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, len(lines))
	for i, line := range lines {
		rows[i] = models.RecipeIngredient{IngredientID: line.ID, Amount: line.Amount}
	}
	return rows
}
