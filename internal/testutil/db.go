// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=private&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), repository.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, (&repository.Database{DB: db}).AutoMigrate())
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "First " + username,
		LastName:  "Last " + username,
		Password:  "not-a-real-hash",
		IsActive:  true,
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, repository.NewIngredientRepository(db).Create(context.Background(), ingredient))
	return ingredient
}

// CreateRecipe stores a recipe authored by author with the given ingredient amounts.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, lines map[*models.Ingredient]int) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "/media/recipes/images/" + name + ".png",
		Text:        "How to cook " + name,
		CookingTime: 10,
		ShortLink:   uuid.NewString()[:8] + name,
	}
	rows := make([]models.RecipeIngredient, 0, len(lines))
	for ingredient, amount := range lines {
		rows = append(rows, models.RecipeIngredient{IngredientID: ingredient.ID, Amount: amount})
	}
	require.NoError(t, repository.NewRecipeRepository(db).Create(context.Background(), recipe, rows))
	return recipe
}
