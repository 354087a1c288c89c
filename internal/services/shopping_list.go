package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/sirupsen/logrus"
)

const shoppingListHeader = "Список покупок:\n\n"

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

type ShoppingListService struct {
	cartRepo   *repository.MembershipRepository[models.ShoppingCart]
	recipeRepo *repository.RecipeRepository
	logger     *logger.Logger
}

func NewShoppingListService(cartRepo *repository.MembershipRepository[models.ShoppingCart], recipeRepo *repository.RecipeRepository, logger *logger.Logger) *ShoppingListService {
	return &ShoppingListService{
		cartRepo:   cartRepo,
		recipeRepo: recipeRepo,
		logger:     logger,
	}
}

// Download renders the aggregated shopping list of everything in the user's cart.
func (s *ShoppingListService) Download(ctx context.Context, userID uint) (string, error) {
	recipeIDs, err := s.cartRepo.RecipeIDs(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get shopping cart: %w", err)
	}
	if len(recipeIDs) == 0 {
		return "", apperr.ErrEmptyCart
	}

	lines, err := s.recipeRepo.LinesForRecipes(ctx, recipeIDs)
	if err != nil {
		return "", fmt.Errorf("failed to get ingredient lines: %w", err)
	}

	items := AggregateShoppingList(lines)
	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"recipes": len(recipeIDs),
		"items":   len(items),
	}).Info("Shopping list generated")

	return RenderShoppingList(items), nil
}

// AggregateShoppingList sums amounts per (name, measurement unit) pair. Catalog entries
// sharing a name and unit merge into one item. Items are sorted by name, then unit.
func AggregateShoppingList(lines []repository.IngredientLine) []ShoppingItem {
	type key struct{ name, unit string }

	totals := make(map[key]int)
	for _, line := range lines {
		totals[key{line.Name, line.MeasurementUnit}] += line.Amount
	}

	items := make([]ShoppingItem, 0, len(totals))
	for k, amount := range totals {
		items = append(items, ShoppingItem{Name: k.name, MeasurementUnit: k.unit, Amount: amount})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

func RenderShoppingList(items []ShoppingItem) string {
	var b strings.Builder
	b.WriteString(shoppingListHeader)
	for _, item := range items {
		b.WriteString(item.Name)
		b.WriteString("(")
		b.WriteString(item.MeasurementUnit)
		b.WriteString("): ")
		b.WriteString(strconv.Itoa(item.Amount))
		b.WriteString("\n")
	}
	return b.String()
}
