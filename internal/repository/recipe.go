package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/maxim190404/foodgram-st/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// RecipeFilter narrows List. Zero values disable a condition.
type RecipeFilter struct {
	AuthorID    uint
	FavoritedBy uint
	InCartOf    uint
}

// IngredientLine is one (name, unit, amount) row of a recipe in someone's cart.
type IngredientLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// Create inserts the recipe and its ingredient lines in one transaction.
func (r *RecipeRepository) Create(ctx context.Context, recipe *models.Recipe, lines []models.RecipeIngredient) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return insertLines(tx, recipe.ID, lines)
	})
	if err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update saves the recipe columns and replaces the whole ingredient-line set. Either
// everything is committed or the previous lines stay untouched.
func (r *RecipeRepository) Update(ctx context.Context, recipe *models.Recipe, lines []models.RecipeIngredient) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]interface{}{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"image":        recipe.Image,
				"cooking_time": recipe.CookingTime,
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return insertLines(tx, recipe.ID, lines)
	})
	if err != nil {
		if errors.Is(translate(err), ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return nil
}

// Delete removes the recipe together with its lines and list memberships.
func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCart{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

func insertLines(tx *gorm.DB, recipeID uint, lines []models.RecipeIngredient) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.RecipeIngredient, len(lines))
	for i, line := range lines {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
		}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

func (r *RecipeRepository) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.withDetails(ctx).First(&recipe, "recipes.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

func (r *RecipeRepository) GetByShortLink(ctx context.Context, token string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "short_link = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by short link: %w", err)
	}
	return &recipe, nil
}

func (r *RecipeRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check recipe: %w", err)
	}
	return count > 0, nil
}

func (r *RecipeRepository) List(ctx context.Context, filter RecipeFilter, offset, limit int) ([]*models.Recipe, int64, error) {
	query := func() *gorm.DB {
		db := r.db.WithContext(ctx).Model(&models.Recipe{})
		if filter.AuthorID != 0 {
			db = db.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if filter.FavoritedBy != 0 {
			db = db.Where("recipes.id IN (?)", r.db.Model(&models.Favorite{}).
				Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
		}
		if filter.InCartOf != 0 {
			db = db.Where("recipes.id IN (?)", r.db.Model(&models.ShoppingCart{}).
				Select("recipe_id").Where("user_id = ?", filter.InCartOf))
		}
		return db
	}

	var count int64
	if err := query().Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []*models.Recipe
	if err := query().
		Preload("Author").
		Preload("Ingredients", orderLines).
		Preload("Ingredients.Ingredient").
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, count, nil
}

// ListByAuthors returns, per author, up to limit newest recipes (all when limit < 1)
// without ingredient lines. Authors without recipes are absent from the map.
func (r *RecipeRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit int) (map[uint][]*models.Recipe, error) {
	byAuthor := make(map[uint][]*models.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return byAuthor, nil
	}

	db := r.db.WithContext(ctx)
	query := db.Model(&models.Recipe{}).Where("author_id IN ?", authorIDs)
	if limit > 0 {
		ranked := query.Select("recipes.*, ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY pub_date DESC, id DESC) AS rn")
		query = db.Table("(?) AS ranked", ranked).Where("rn <= ?", limit)
	}

	var recipes []*models.Recipe
	if err := query.
		Order("author_id").
		Order("pub_date DESC").
		Order("id DESC").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes by author: %w", err)
	}

	for _, recipe := range recipes {
		byAuthor[recipe.AuthorID] = append(byAuthor[recipe.AuthorID], recipe)
	}
	return byAuthor, nil
}

func (r *RecipeRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

// LinesForRecipes fetches every ingredient line of the given recipes joined with its
// catalog entry.
func (r *RecipeRepository) LinesForRecipes(ctx context.Context, recipeIDs []uint) ([]IngredientLine, error) {
	if len(recipeIDs) == 0 {
		return nil, nil
	}

	var lines []IngredientLine
	if err := r.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN ?", recipeIDs).
		Order("recipe_ingredients.id").
		Scan(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to get ingredient lines: %w", err)
	}
	return lines, nil
}

func (r *RecipeRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Ingredients", orderLines).
		Preload("Ingredients.Ingredient")
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("recipe_ingredients.id")
}
