package services

import (
	"context"
	"errors"
	"testing"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientService_ListUsesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	testutil.CreateIngredient(t, env.db, "sugar", "g")
	testutil.CreateIngredient(t, env.db, "salt", "g")
	testutil.CreateIngredient(t, env.db, "milk", "ml")

	found, err := env.ingredients.List(ctx, "S")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "salt", found[0].Name)
	assert.Equal(t, "sugar", found[1].Name)
	assert.Contains(t, env.cache.data, "ingredients:s")

	// served from the cache even after the catalog changes
	testutil.CreateIngredient(t, env.db, "semolina", "g")
	cached, err := env.ingredients.List(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	none, err := env.ingredients.List(ctx, "xyz")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestIngredientService_CacheFailureFallsThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.cache.err = errors.New("redis down")

	testutil.CreateIngredient(t, env.db, "sugar", "g")

	found, err := env.ingredients.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestIngredientService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sugar := testutil.CreateIngredient(t, env.db, "sugar", "g")

	got, err := env.ingredients.Get(ctx, sugar.ID)
	require.NoError(t, err)
	assert.Equal(t, "g", got.MeasurementUnit)

	_, err = env.ingredients.Get(ctx, sugar.ID+1)
	assert.ErrorIs(t, err, apperr.ErrIngredientNotFound)
}
