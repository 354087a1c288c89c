package services

import (
	"context"
	"fmt"

	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
)

// UserSummary is the public representation of a user.
type UserSummary struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar"`
}

// UserWithRecipes is a UserSummary extended with the author's newest recipes.
type UserWithRecipes struct {
	UserSummary
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}

type RecipeSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type IngredientAmount struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeDetail struct {
	ID               uint               `json:"id"`
	Author           UserSummary        `json:"author"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// Page is one page of a paginated listing. Count is the total across all pages.
type Page[T any] struct {
	Count int64
	Items []T
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// presenter builds views for a viewer. ViewerID 0 means anonymous.
type presenter struct {
	followRepo   *repository.FollowRepository
	favoriteRepo *repository.MembershipRepository[models.Favorite]
	cartRepo     *repository.MembershipRepository[models.ShoppingCart]
	recipeRepo   *repository.RecipeRepository
}

func newPresenter(followRepo *repository.FollowRepository, favoriteRepo *repository.MembershipRepository[models.Favorite],
	cartRepo *repository.MembershipRepository[models.ShoppingCart], recipeRepo *repository.RecipeRepository) *presenter {
	return &presenter{
		followRepo:   followRepo,
		favoriteRepo: favoriteRepo,
		cartRepo:     cartRepo,
		recipeRepo:   recipeRepo,
	}
}

func userSummary(user *models.User, subscribed bool, baseURL string) UserSummary {
	return UserSummary{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
		Avatar:       media.AbsoluteURL(baseURL, user.Avatar),
	}
}

func recipeSummary(recipe *models.Recipe, baseURL string) RecipeSummary {
	return RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       media.AbsoluteURL(baseURL, recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

func (p *presenter) users(ctx context.Context, viewerID uint, users []*models.User, baseURL string) ([]UserSummary, error) {
	followed := map[uint]bool{}
	if viewerID != 0 && len(users) > 0 {
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var err error
		if followed, err = p.followRepo.FollowedAmong(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}

	views := make([]UserSummary, len(users))
	for i, u := range users {
		views[i] = userSummary(u, followed[u.ID], baseURL)
	}
	return views, nil
}

func (p *presenter) user(ctx context.Context, viewerID uint, user *models.User, baseURL string) (*UserSummary, error) {
	views, err := p.users(ctx, viewerID, []*models.User{user}, baseURL)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// usersWithRecipes attaches up to recipesLimit newest recipes (all when < 1) and the
// recipe count of every user. The viewer follows all of them.
func (p *presenter) usersWithRecipes(ctx context.Context, users []*models.User, recipesLimit int, baseURL string) ([]UserWithRecipes, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	counts, err := p.recipeRepo.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	byAuthor, err := p.recipeRepo.ListByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	views := make([]UserWithRecipes, len(users))
	for i, u := range users {
		recipes := byAuthor[u.ID]
		summaries := make([]RecipeSummary, len(recipes))
		for j, r := range recipes {
			summaries[j] = recipeSummary(r, baseURL)
		}
		views[i] = UserWithRecipes{
			UserSummary:  userSummary(u, true, baseURL),
			Recipes:      summaries,
			RecipesCount: counts[u.ID],
		}
	}
	return views, nil
}

// recipes expects recipes loaded with Author and Ingredients.Ingredient.
func (p *presenter) recipes(ctx context.Context, viewerID uint, recipes []*models.Recipe, baseURL string) ([]RecipeDetail, error) {
	favorited, inCart, followed := map[uint]bool{}, map[uint]bool{}, map[uint]bool{}
	if viewerID != 0 && len(recipes) > 0 {
		recipeIDs := make([]uint, len(recipes))
		authorIDs := make([]uint, len(recipes))
		for i, r := range recipes {
			recipeIDs[i] = r.ID
			authorIDs[i] = r.AuthorID
		}

		var err error
		if favorited, err = p.favoriteRepo.ContainedAmong(ctx, viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = p.cartRepo.ContainedAmong(ctx, viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if followed, err = p.followRepo.FollowedAmong(ctx, viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	views := make([]RecipeDetail, len(recipes))
	for i, r := range recipes {
		ingredients := make([]IngredientAmount, len(r.Ingredients))
		for j, line := range r.Ingredients {
			ingredients[j] = IngredientAmount{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			}
		}
		views[i] = RecipeDetail{
			ID:               r.ID,
			Author:           userSummary(&r.Author, followed[r.AuthorID], baseURL),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            media.AbsoluteURL(baseURL, r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return views, nil
}

func (p *presenter) recipe(ctx context.Context, viewerID uint, recipe *models.Recipe, baseURL string) (*RecipeDetail, error) {
	views, err := p.recipes(ctx, viewerID, []*models.Recipe{recipe}, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build recipe view: %w", err)
	}
	return &views[0], nil
}
