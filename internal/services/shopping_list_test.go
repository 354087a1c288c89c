package services

import (
	"context"
	"testing"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateShoppingList(t *testing.T) {
	lines := []repository.IngredientLine{
		{Name: "сахар", MeasurementUnit: "г", Amount: 200},
		{Name: "мука", MeasurementUnit: "г", Amount: 500},
		{Name: "сахар", MeasurementUnit: "г", Amount: 100},
		{Name: "сахар", MeasurementUnit: "ст. л.", Amount: 2},
		{Name: "молоко", MeasurementUnit: "мл", Amount: 250},
	}

	items := AggregateShoppingList(lines)
	assert.Equal(t, []ShoppingItem{
		{Name: "молоко", MeasurementUnit: "мл", Amount: 250},
		{Name: "мука", MeasurementUnit: "г", Amount: 500},
		{Name: "сахар", MeasurementUnit: "г", Amount: 300},
		{Name: "сахар", MeasurementUnit: "ст. л.", Amount: 2},
	}, items)

	// input order does not change totals or output
	reversed := make([]repository.IngredientLine, len(lines))
	for i, line := range lines {
		reversed[len(lines)-1-i] = line
	}
	assert.Equal(t, items, AggregateShoppingList(reversed))

	assert.Empty(t, AggregateShoppingList(nil))
}

func TestRenderShoppingList(t *testing.T) {
	out := RenderShoppingList([]ShoppingItem{
		{Name: "мука", MeasurementUnit: "г", Amount: 500},
		{Name: "сахар", MeasurementUnit: "г", Amount: 300},
	})
	assert.Equal(t, "Список покупок:\n\nмука(г): 500\nсахар(г): 300\n", out)
	assert.Equal(t, "Список покупок:\n\n", RenderShoppingList(nil))
}

func TestShoppingListService_Download(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cook := testutil.CreateUser(t, env.db, "cook")
	buyer := testutil.CreateUser(t, env.db, "buyer")
	sugar := testutil.CreateIngredient(t, env.db, "сахар", "г")
	// a second catalog row with the same name and unit
	sugarDup := testutil.CreateIngredient(t, env.db, "сахар", "г")
	flour := testutil.CreateIngredient(t, env.db, "мука", "г")

	cake := testutil.CreateRecipe(t, env.db, cook, "cake", map[*models.Ingredient]int{sugar: 200, flour: 400})
	pie := testutil.CreateRecipe(t, env.db, cook, "pie", map[*models.Ingredient]int{sugarDup: 100})
	testutil.CreateRecipe(t, env.db, cook, "bread", map[*models.Ingredient]int{flour: 1000})

	_, err := env.shopping.Download(ctx, buyer.ID)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	_, err = env.cart.Add(ctx, buyer.ID, cake.ID, testBaseURL)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, buyer.ID, pie.ID, testBaseURL)
	require.NoError(t, err)

	out, err := env.shopping.Download(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Список покупок:\n\nмука(г): 400\nсахар(г): 300\n", out)
}
