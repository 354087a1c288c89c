package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/testutil"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func newCreateRequest(lines ...IngredientLineInput) *CreateRecipeRequest {
	return &CreateRecipeRequest{
		Ingredients: lines,
		Image:       pngDataURI(),
		Name:        "Борщ",
		Text:        "Варить долго",
		CookingTime: 90,
	}
}

func TestRecipeService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	beet := testutil.CreateIngredient(t, env.db, "свекла", "г")
	water := testutil.CreateIngredient(t, env.db, "вода", "мл")

	detail, err := env.recipes.Create(ctx, author.ID, newCreateRequest(
		IngredientLineInput{ID: water.ID, Amount: 2000},
		IngredientLineInput{ID: beet.ID, Amount: 300},
	), testBaseURL)
	require.NoError(t, err)

	assert.Equal(t, "Борщ", detail.Name)
	assert.Equal(t, 90, detail.CookingTime)
	assert.Equal(t, author.ID, detail.Author.ID)
	assert.False(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)
	assert.Equal(t, []IngredientAmount{
		{ID: water.ID, Name: "вода", MeasurementUnit: "мл", Amount: 2000},
		{ID: beet.ID, Name: "свекла", MeasurementUnit: "г", Amount: 300},
	}, detail.Ingredients)
	assert.Regexp(t, `^http://testserver/media/recipes/images/[0-9a-f-]+\.png$`, detail.Image)
	assert.True(t, env.storage.has(detail.Image))

	var stored models.Recipe
	require.NoError(t, env.db.First(&stored, detail.ID).Error)
	assert.Len(t, stored.ShortLink, 32)
	assert.False(t, stored.PubDate.IsZero())

	assert.Equal(t, []queue.EventType{queue.EventRecipeCreated}, env.publisher.types())
}

func TestRecipeService_CreateWithUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	salt := testutil.CreateIngredient(t, env.db, "соль", "г")

	req := newCreateRequest(IngredientLineInput{ID: salt.ID, Amount: 5})
	req.Image = "not-a-data-uri"
	req.ImageUpload = &media.Image{Data: []byte("jpeg bytes"), ContentType: "image/jpeg"}

	detail, err := env.recipes.Create(ctx, author.ID, req, testBaseURL)
	require.NoError(t, err)
	assert.Regexp(t, `^http://testserver/media/recipes/images/[0-9a-f-]+\.jpg$`, detail.Image)

	updated, err := env.recipes.Update(ctx, author.ID, detail.ID, &UpdateRecipeRequest{
		Ingredients: []IngredientLineInput{{ID: salt.ID, Amount: 5}},
		ImageUpload: &media.Image{Data: testPNG, ContentType: "image/png"},
	}, testBaseURL)
	require.NoError(t, err)
	assert.Regexp(t, `\.png$`, updated.Image)
	assert.True(t, env.storage.has(updated.Image))

	req = newCreateRequest(IngredientLineInput{ID: salt.ID, Amount: 5})
	req.Image = ""
	_, err = env.recipes.Create(ctx, author.ID, req, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrImageRequired)
}

func TestRecipeService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	salt := testutil.CreateIngredient(t, env.db, "соль", "г")

	tests := []struct {
		name    string
		req     *CreateRecipeRequest
		wantErr error
	}{
		{
			name:    "duplicate ingredient",
			req:     newCreateRequest(IngredientLineInput{ID: salt.ID, Amount: 200}, IngredientLineInput{ID: salt.ID, Amount: 50}),
			wantErr: apperr.ErrDuplicateIngredient,
		},
		{
			name:    "unknown ingredient",
			req:     newCreateRequest(IngredientLineInput{ID: salt.ID + 100, Amount: 200}),
			wantErr: apperr.ErrUnknownIngredient,
		},
		{
			name:    "no ingredients",
			req:     newCreateRequest(),
			wantErr: apperr.ErrEmptyIngredientList,
		},
		{
			name: "cooking time too long",
			req: func() *CreateRecipeRequest {
				req := newCreateRequest(IngredientLineInput{ID: salt.ID, Amount: 1})
				req.CookingTime = 32001
				return req
			}(),
			wantErr: apperr.ErrCookingTimeRange,
		},
		{
			name: "broken image",
			req: func() *CreateRecipeRequest {
				req := newCreateRequest(IngredientLineInput{ID: salt.ID, Amount: 1})
				req.Image = "data:image/png;base64,@@@"
				return req
			}(),
			wantErr: apperr.ErrInvalidImageEncoding,
		},
		{
			name: "missing image",
			req: func() *CreateRecipeRequest {
				req := newCreateRequest(IngredientLineInput{ID: salt.ID, Amount: 1})
				req.Image = ""
				return req
			}(),
			wantErr: apperr.ErrImageRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.recipes.Create(ctx, author.ID, tt.req, testBaseURL)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var count int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.storage.objects)
	assert.Empty(t, env.publisher.types())
}

func TestRecipeService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	stranger := testutil.CreateUser(t, env.db, "stranger")
	egg := testutil.CreateIngredient(t, env.db, "яйцо", "шт")
	milk := testutil.CreateIngredient(t, env.db, "молоко", "мл")

	created, err := env.recipes.Create(ctx, author.ID, newCreateRequest(IngredientLineInput{ID: egg.ID, Amount: 3}), testBaseURL)
	require.NoError(t, err)
	oldImage := created.Image

	_, err = env.recipes.Update(ctx, stranger.ID, created.ID, &UpdateRecipeRequest{
		Ingredients: []IngredientLineInput{{ID: egg.ID, Amount: 1}},
	}, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrNotAuthor)

	_, err = env.recipes.Update(ctx, author.ID, created.ID+100, &UpdateRecipeRequest{
		Ingredients: []IngredientLineInput{{ID: egg.ID, Amount: 1}},
	}, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrRecipeNotFound)

	// a rejected update leaves the stored lines alone
	_, err = env.recipes.Update(ctx, author.ID, created.ID, &UpdateRecipeRequest{
		Ingredients: []IngredientLineInput{{ID: milk.ID, Amount: 0}},
	}, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrAmountOutOfRange)

	_, err = env.recipes.Update(ctx, author.ID, created.ID, &UpdateRecipeRequest{}, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrEmptyIngredientList)

	unchanged, err := env.recipes.Get(ctx, 0, created.ID, testBaseURL)
	require.NoError(t, err)
	assert.Equal(t, created.Ingredients, unchanged.Ingredients)

	updated, err := env.recipes.Update(ctx, author.ID, created.ID, &UpdateRecipeRequest{
		Ingredients: []IngredientLineInput{{ID: milk.ID, Amount: 200}, {ID: egg.ID, Amount: 2}},
		Name:        strPtr("Омлет"),
		CookingTime: intPtr(15),
		Image:       strPtr(pngDataURI()),
	}, testBaseURL)
	require.NoError(t, err)

	assert.Equal(t, "Омлет", updated.Name)
	assert.Equal(t, "Варить долго", updated.Text)
	assert.Equal(t, 15, updated.CookingTime)
	assert.Equal(t, []IngredientAmount{
		{ID: milk.ID, Name: "молоко", MeasurementUnit: "мл", Amount: 200},
		{ID: egg.ID, Name: "яйцо", MeasurementUnit: "шт", Amount: 2},
	}, updated.Ingredients)
	assert.NotEqual(t, oldImage, updated.Image)

	event := env.publisher.last()
	assert.Equal(t, queue.EventRecipeUpdated, event.Type)
	data := event.Data.(queue.RecipeEventData)
	assert.Equal(t, strings.TrimPrefix(oldImage, testBaseURL), data.StaleImage)
	assert.Equal(t, strings.TrimPrefix(updated.Image, testBaseURL), data.Image)
}

func TestRecipeService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	fan := testutil.CreateUser(t, env.db, "fan")
	egg := testutil.CreateIngredient(t, env.db, "яйцо", "шт")

	created, err := env.recipes.Create(ctx, author.ID, newCreateRequest(IngredientLineInput{ID: egg.ID, Amount: 3}), testBaseURL)
	require.NoError(t, err)
	_, err = env.favorites.Add(ctx, fan.ID, created.ID, testBaseURL)
	require.NoError(t, err)

	assert.ErrorIs(t, env.recipes.Delete(ctx, fan.ID, created.ID), apperr.ErrNotAuthor)
	require.NoError(t, env.recipes.Delete(ctx, author.ID, created.ID))

	_, err = env.recipes.Get(ctx, 0, created.ID, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrRecipeNotFound)
	assert.ErrorIs(t, env.recipes.Delete(ctx, author.ID, created.ID), apperr.ErrRecipeNotFound)

	event := env.publisher.last()
	assert.Equal(t, queue.EventRecipeDeleted, event.Type)
	assert.NotEmpty(t, event.Data.(queue.RecipeEventData).StaleImage)
}

func TestRecipeService_ListForViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	reader := testutil.CreateUser(t, env.db, "reader")
	egg := testutil.CreateIngredient(t, env.db, "egg", "pcs")

	first := testutil.CreateRecipe(t, env.db, author, "first", map[*models.Ingredient]int{egg: 1})
	second := testutil.CreateRecipe(t, env.db, author, "second", map[*models.Ingredient]int{egg: 2})
	third := testutil.CreateRecipe(t, env.db, reader, "third", map[*models.Ingredient]int{egg: 3})

	_, err := env.favorites.Add(ctx, reader.ID, first.ID, testBaseURL)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, reader.ID, second.ID, testBaseURL)
	require.NoError(t, err)
	_, err = env.follows.Follow(ctx, reader.ID, author.ID, 0, testBaseURL)
	require.NoError(t, err)

	page, err := env.recipes.List(ctx, reader.ID, RecipeQuery{}, Pagination{Page: 1, Limit: 10}, testBaseURL)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Count)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})
	assert.True(t, page.Items[2].IsFavorited)
	assert.True(t, page.Items[1].IsInShoppingCart)
	assert.True(t, page.Items[1].Author.IsSubscribed)
	assert.False(t, page.Items[0].Author.IsSubscribed)

	favorited, err := env.recipes.List(ctx, reader.ID, RecipeQuery{IsFavorited: true}, Pagination{Page: 1, Limit: 10}, testBaseURL)
	require.NoError(t, err)
	require.Len(t, favorited.Items, 1)
	assert.Equal(t, first.ID, favorited.Items[0].ID)

	// the membership filters need a viewer
	anonymous, err := env.recipes.List(ctx, 0, RecipeQuery{IsInShoppingCart: true}, Pagination{Page: 1, Limit: 10}, testBaseURL)
	require.NoError(t, err)
	assert.EqualValues(t, 3, anonymous.Count)
	for _, item := range anonymous.Items {
		assert.False(t, item.IsInShoppingCart)
	}

	byAuthor, err := env.recipes.List(ctx, 0, RecipeQuery{AuthorID: author.ID}, Pagination{Page: 2, Limit: 1}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, byAuthor.Count)
	require.Len(t, byAuthor.Items, 1)
	assert.Equal(t, first.ID, byAuthor.Items[0].ID)
	// no base URL, no image link
	assert.Empty(t, byAuthor.Items[0].Image)
}

func TestRecipeService_ShortLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := testutil.CreateUser(t, env.db, "author")
	egg := testutil.CreateIngredient(t, env.db, "egg", "pcs")
	recipe := testutil.CreateRecipe(t, env.db, author, "eggs", map[*models.Ingredient]int{egg: 1})

	link, err := env.recipes.ShortLink(ctx, recipe.ID, "https://foodgram.example/")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://foodgram.example/recipes/%d", recipe.ID), link)

	_, err = env.recipes.ShortLink(ctx, recipe.ID+1, testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrRecipeNotFound)

	id, err := env.recipes.ResolveShortLink(ctx, recipe.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, id)

	_, err = env.recipes.ResolveShortLink(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrRecipeNotFound)
}

// Walks through the rejection paths a client can hit in one session.
func TestRecipeScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, env.db, "user")

	_, err := env.recipes.Create(ctx, user.ID, newCreateRequest(
		IngredientLineInput{ID: 1, Amount: 200},
		IngredientLineInput{ID: 1, Amount: 50},
	), testBaseURL)
	assert.ErrorIs(t, err, apperr.ErrDuplicateIngredient)

	_, err = env.recipes.Create(ctx, user.ID, newCreateRequest(IngredientLineInput{ID: 1, Amount: 200}), testBaseURL)
	var unknown *apperr.UnknownIngredientError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint(1), unknown.ID)

	_, err = env.shopping.Download(ctx, user.ID)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	sugar := testutil.CreateIngredient(t, env.db, "сахар", "г")
	recipe, err := env.recipes.Create(ctx, user.ID, newCreateRequest(IngredientLineInput{ID: sugar.ID, Amount: 200}), testBaseURL)
	require.NoError(t, err)

	_, err = env.cart.Add(ctx, user.ID, recipe.ID, testBaseURL)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, user.ID, recipe.ID, testBaseURL)
	kind, ok := apperr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, kind)
}
