package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/models"
	"github.com/maxim190404/foodgram-st/internal/repository"
	"github.com/maxim190404/foodgram-st/pkg/logger"
	"github.com/maxim190404/foodgram-st/pkg/queue"
	"github.com/maxim190404/foodgram-st/pkg/storage"
	"github.com/sirupsen/logrus"
)

const recipeImagePrefix = "recipes/images"

type RecipeService struct {
	recipeRepo     *repository.RecipeRepository
	ingredientRepo *repository.IngredientRepository
	presenter      *presenter
	storage        storage.ObjectStorage
	producer       queue.EventPublisher
	logger         *logger.Logger
}

func NewRecipeService(
	recipeRepo *repository.RecipeRepository,
	ingredientRepo *repository.IngredientRepository,
	followRepo *repository.FollowRepository,
	favoriteRepo *repository.MembershipRepository[models.Favorite],
	cartRepo *repository.MembershipRepository[models.ShoppingCart],
	storage storage.ObjectStorage,
	producer queue.EventPublisher,
	logger *logger.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		presenter:      newPresenter(followRepo, favoriteRepo, cartRepo, recipeRepo),
		storage:        storage,
		producer:       producer,
		logger:         logger,
	}
}

type CreateRecipeRequest struct {
	Ingredients []IngredientLineInput `json:"ingredients"`
	Image       string                `json:"image"`
	Name        string                `json:"name" binding:"required,max=256"`
	Text        string                `json:"text" binding:"required"`
	CookingTime int                   `json:"cooking_time"`

	// ImageUpload carries a binary upload and takes precedence over Image.
	ImageUpload *media.Image `json:"-"`
}

// UpdateRecipeRequest replaces the ingredient lines; other fields are optional.
type UpdateRecipeRequest struct {
	Ingredients []IngredientLineInput `json:"ingredients"`
	Image       *string               `json:"image"`
	Name        *string               `json:"name" binding:"omitempty,max=256"`
	Text        *string               `json:"text"`
	CookingTime *int                  `json:"cooking_time"`

	ImageUpload *media.Image `json:"-"`
}

// RecipeQuery holds the listing filters. IsFavorited and IsInShoppingCart only apply to
// an authenticated viewer.
type RecipeQuery struct {
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

func validateCookingTime(minutes int) error {
	if minutes < models.MinCookingTime || minutes > models.MaxCookingTime {
		return apperr.ErrCookingTimeRange
	}
	return nil
}

func (s *RecipeService) Create(ctx context.Context, authorID uint, req *CreateRecipeRequest, baseURL string) (*RecipeDetail, error) {
	if err := validateCookingTime(req.CookingTime); err != nil {
		return nil, err
	}
	lines, err := ValidateIngredientLines(ctx, s.ingredientRepo, req.Ingredients)
	if err != nil {
		return nil, err
	}
	img, err := recipeImage(req.Image, req.ImageUpload)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, apperr.ErrImageRequired
	}

	imageRef, err := s.storage.Store(ctx, img.Data, img.ObjectName(recipeImagePrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       imageRef,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		ShortLink:   newShortLink(),
	}
	if err := s.recipeRepo.Create(ctx, recipe, toRecipeIngredients(lines)); err != nil {
		s.discardImage(ctx, imageRef)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateIngredient
		}
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	publish(ctx, s.producer, s.logger, recipeKey(recipe.ID), queue.NewEvent(queue.EventRecipeCreated, queue.RecipeEventData{
		RecipeID: recipe.ID,
		AuthorID: authorID,
		Image:    imageRef,
	}))

	s.logger.WithFields(logrus.Fields{
		"recipe_id": recipe.ID,
		"author_id": authorID,
	}).Info("Recipe created successfully")

	return s.Get(ctx, authorID, recipe.ID, baseURL)
}

func (s *RecipeService) Update(ctx context.Context, userID, recipeID uint, req *UpdateRecipeRequest, baseURL string) (*RecipeDetail, error) {
	recipe, err := s.authoredRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if req.CookingTime != nil {
		if err := validateCookingTime(*req.CookingTime); err != nil {
			return nil, err
		}
		recipe.CookingTime = *req.CookingTime
	}
	lines, err := ValidateIngredientLines(ctx, s.ingredientRepo, req.Ingredients)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		recipe.Name = *req.Name
	}
	if req.Text != nil {
		recipe.Text = *req.Text
	}

	staleImage := ""
	dataURI := ""
	if req.Image != nil {
		dataURI = *req.Image
	}
	img, err := recipeImage(dataURI, req.ImageUpload)
	if err != nil {
		return nil, err
	}
	if img != nil {
		imageRef, err := s.storage.Store(ctx, img.Data, img.ObjectName(recipeImagePrefix))
		if err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
		staleImage, recipe.Image = recipe.Image, imageRef
	}

	if err := s.recipeRepo.Update(ctx, recipe, toRecipeIngredients(lines)); err != nil {
		if staleImage != "" {
			s.discardImage(ctx, recipe.Image)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateIngredient
		}
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	publish(ctx, s.producer, s.logger, recipeKey(recipe.ID), queue.NewEvent(queue.EventRecipeUpdated, queue.RecipeEventData{
		RecipeID:   recipe.ID,
		AuthorID:   recipe.AuthorID,
		Image:      recipe.Image,
		StaleImage: staleImage,
	}))

	s.logger.WithField("recipe_id", recipe.ID).Info("Recipe updated successfully")
	return s.Get(ctx, userID, recipe.ID, baseURL)
}

func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uint) error {
	recipe, err := s.authoredRecipe(ctx, userID, recipeID)
	if err != nil {
		return err
	}

	if err := s.recipeRepo.Delete(ctx, recipe.ID); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	publish(ctx, s.producer, s.logger, recipeKey(recipe.ID), queue.NewEvent(queue.EventRecipeDeleted, queue.RecipeEventData{
		RecipeID:   recipe.ID,
		AuthorID:   recipe.AuthorID,
		StaleImage: recipe.Image,
	}))

	s.logger.WithField("recipe_id", recipe.ID).Info("Recipe deleted successfully")
	return nil
}

// Get returns a recipe as seen by viewerID (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uint, baseURL string) (*RecipeDetail, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return nil, apperr.ErrRecipeNotFound
	}
	return s.presenter.recipe(ctx, viewerID, recipe, baseURL)
}

func (s *RecipeService) List(ctx context.Context, viewerID uint, query RecipeQuery, page Pagination, baseURL string) (*Page[RecipeDetail], error) {
	filter := repository.RecipeFilter{AuthorID: query.AuthorID}
	if viewerID != 0 {
		if query.IsFavorited {
			filter.FavoritedBy = viewerID
		}
		if query.IsInShoppingCart {
			filter.InCartOf = viewerID
		}
	}

	recipes, count, err := s.recipeRepo.List(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.presenter.recipes(ctx, viewerID, recipes, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build recipe views: %w", err)
	}
	return &Page[RecipeDetail]{Count: count, Items: views}, nil
}

// ShortLink returns the public link of a recipe: {baseURL}/recipes/{id}.
func (s *RecipeService) ShortLink(ctx context.Context, recipeID uint, baseURL string) (string, error) {
	exists, err := s.recipeRepo.Exists(ctx, recipeID)
	if err != nil {
		return "", fmt.Errorf("failed to check recipe: %w", err)
	}
	if !exists {
		return "", apperr.ErrRecipeNotFound
	}
	return strings.TrimRight(baseURL, "/") + "/recipes/" + strconv.FormatUint(uint64(recipeID), 10), nil
}

// ResolveShortLink maps a stored short-link token to its recipe ID.
func (s *RecipeService) ResolveShortLink(ctx context.Context, token string) (uint, error) {
	recipe, err := s.recipeRepo.GetByShortLink(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve short link: %w", err)
	}
	if recipe == nil {
		return 0, apperr.ErrRecipeNotFound
	}
	return recipe.ID, nil
}

func (s *RecipeService) authoredRecipe(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if recipe == nil {
		return nil, apperr.ErrRecipeNotFound
	}
	if recipe.AuthorID != userID {
		return nil, apperr.ErrNotAuthor
	}
	return recipe, nil
}

func (s *RecipeService) discardImage(ctx context.Context, ref string) {
	if err := s.storage.Delete(ctx, ref); err != nil {
		s.logger.WithError(err).WithField("image", ref).Warn("Failed to delete orphaned image")
	}
}

// recipeImage picks the uploaded image, or decodes the data URI. Both empty yields nil.
func recipeImage(dataURI string, upload *media.Image) (*media.Image, error) {
	if upload != nil {
		return upload, nil
	}
	if strings.TrimSpace(dataURI) == "" {
		return nil, nil
	}
	return media.DecodeDataURI(dataURI)
}

func newShortLink() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func recipeKey(id uint) string {
	return "recipe:" + strconv.FormatUint(uint64(id), 10)
}
