package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/services"
)

const maxUploadSize = 10 << 20

var errUploadTooLarge = apperr.New(apperr.KindValidation, "upload_too_large", "uploaded file is too large")

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// readUpload returns the image sent as a multipart file, or nil when the field is absent.
func readUpload(c *gin.Context, field string) (*media.Image, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid_request", err.Error())
	}
	if header.Size > maxUploadSize {
		return nil, errUploadTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return media.FromUpload(data, header.Header.Get("Content-Type"))
}

// recipeForm is a recipe sent as multipart/form-data: scalar fields, ingredients as a
// JSON array and the image as a file part.
type recipeForm struct {
	ingredients []services.IngredientLineInput
	name        *string
	text        *string
	cookingTime *int
	image       *media.Image
}

func readRecipeForm(c *gin.Context) (*recipeForm, error) {
	form := &recipeForm{}

	if raw, ok := c.GetPostForm("ingredients"); ok {
		if err := json.Unmarshal([]byte(raw), &form.ingredients); err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid_request", "ingredients must be a JSON array")
		}
	}
	if name, ok := c.GetPostForm("name"); ok {
		form.name = &name
	}
	if text, ok := c.GetPostForm("text"); ok {
		form.text = &text
	}
	if raw, ok := c.GetPostForm("cooking_time"); ok {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid_request", "cooking_time must be an integer")
		}
		form.cookingTime = &minutes
	}

	img, err := readUpload(c, "image")
	if err != nil {
		return nil, err
	}
	form.image = img
	return form, nil
}

func (f *recipeForm) createRequest() *services.CreateRecipeRequest {
	req := &services.CreateRecipeRequest{
		Ingredients: f.ingredients,
		ImageUpload: f.image,
	}
	if f.name != nil {
		req.Name = *f.name
	}
	if f.text != nil {
		req.Text = *f.text
	}
	if f.cookingTime != nil {
		req.CookingTime = *f.cookingTime
	}
	return req
}

func (f *recipeForm) updateRequest() *services.UpdateRecipeRequest {
	return &services.UpdateRecipeRequest{
		Ingredients: f.ingredients,
		Name:        f.name,
		Text:        f.text,
		CookingTime: f.cookingTime,
		ImageUpload: f.image,
	}
}
