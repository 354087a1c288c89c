package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/services"
	"github.com/maxim190404/foodgram-st/pkg/logger"
)

type IngredientHandler struct {
	ingredientService *services.IngredientService
	logger            *logger.Logger
}

func NewIngredientHandler(ingredientService *services.IngredientService, logger *logger.Logger) *IngredientHandler {
	return &IngredientHandler{
		ingredientService: ingredientService,
		logger:            logger,
	}
}

// List filters by ?name= prefix and is not paginated.
func (h *IngredientHandler) List(c *gin.Context) {
	ingredients, err := h.ingredientService.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ingredients)
}

func (h *IngredientHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrIngredientNotFound)
		return
	}

	ingredient, err := h.ingredientService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ingredient)
}
