package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/middleware"
	"github.com/maxim190404/foodgram-st/internal/services"
	"github.com/maxim190404/foodgram-st/pkg/logger"
)

const shoppingListFilename = "shopping_list.txt"

type RecipeHandler struct {
	recipeService       *services.RecipeService
	favoriteService     *services.MembershipService
	cartService         *services.MembershipService
	shoppingListService *services.ShoppingListService
	paginator           Paginator
	baseURL             string
	logger              *logger.Logger
}

func NewRecipeHandler(
	recipeService *services.RecipeService,
	favoriteService *services.MembershipService,
	cartService *services.MembershipService,
	shoppingListService *services.ShoppingListService,
	paginator Paginator,
	baseURL string,
	logger *logger.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:       recipeService,
		favoriteService:     favoriteService,
		cartService:         cartService,
		shoppingListService: shoppingListService,
		paginator:           paginator,
		baseURL:             baseURL,
		logger:              logger,
	}
}

func (h *RecipeHandler) List(c *gin.Context) {
	page := h.paginator.Parse(c)
	base := baseURL(c, h.baseURL)

	query := services.RecipeQuery{
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "author must be a user id", "code": "invalid_request"})
			return
		}
		query.AuthorID = uint(id)
	}

	recipes, err := h.recipeService.List(c.Request.Context(), middleware.GetUserID(c), query, page, base)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondPage(c, base, page, recipes)
}

// Create accepts JSON with a data URI image, or multipart/form-data with an "image" file.
func (h *RecipeHandler) Create(c *gin.Context) {
	req := &services.CreateRecipeRequest{}
	if isMultipart(c) {
		form, err := readRecipeForm(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		req = form.createRequest()
		if err := binding.Validator.ValidateStruct(req); err != nil {
			respondBindError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), middleware.GetUserID(c), req, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrRecipeNotFound)
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.GetUserID(c), recipeID, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrRecipeNotFound)
		return
	}

	req := &services.UpdateRecipeRequest{}
	if isMultipart(c) {
		form, err := readRecipeForm(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		req = form.updateRequest()
		if err := binding.Validator.ValidateStruct(req); err != nil {
			respondBindError(c, err)
			return
		}
	} else if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), middleware.GetUserID(c), recipeID, req, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrRecipeNotFound)
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), middleware.GetUserID(c), recipeID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, h.favoriteService)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, h.favoriteService)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMembership(c, h.cartService)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, h.cartService)
}

func (h *RecipeHandler) addMembership(c *gin.Context, svc *services.MembershipService) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrRecipeNotFound)
		return
	}

	summary, err := svc.Add(c.Request.Context(), middleware.GetUserID(c), recipeID, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

func (h *RecipeHandler) removeMembership(c *gin.Context, svc *services.MembershipService) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrRecipeNotFound)
		return
	}

	if err := svc.Remove(c.Request.Context(), middleware.GetUserID(c), recipeID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	list, err := h.shoppingListService.Download(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list))
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	recipeID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrRecipeNotFound)
		return
	}

	link, err := h.recipeService.ShortLink(c.Request.Context(), recipeID, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short-link": link})
}

// ResolveShortLink redirects /s/{token} to the recipe page.
func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	recipeID, err := h.recipeService.ResolveShortLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, baseURL(c, h.baseURL)+"/recipes/"+strconv.FormatUint(uint64(recipeID), 10))
}

// queryFlag treats "1" and "true" as set.
func queryFlag(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "True":
		return true
	}
	return false
}
