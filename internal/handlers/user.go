package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/media"
	"github.com/maxim190404/foodgram-st/internal/middleware"
	"github.com/maxim190404/foodgram-st/internal/services"
	"github.com/maxim190404/foodgram-st/pkg/logger"
)

var errAvatarRequired = apperr.New(apperr.KindValidation, "avatar_required", "avatar is required")

// TokenRevoker remembers a token ID until the token would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type UserHandler struct {
	userService   *services.UserService
	followService *services.FollowService
	revoker       TokenRevoker
	jwtSecret     string
	tokenTTL      time.Duration
	paginator     Paginator
	baseURL       string
	logger        *logger.Logger
}

func NewUserHandler(
	userService *services.UserService,
	followService *services.FollowService,
	revoker TokenRevoker,
	jwtSecret string,
	tokenTTL time.Duration,
	paginator Paginator,
	baseURL string,
	logger *logger.Logger,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
		revoker:       revoker,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		paginator:     paginator,
		baseURL:       baseURL,
		logger:        logger,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_token": token})
}

func (h *UserHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		respondError(c, h.logger, apperr.ErrUnauthenticated)
		return
	}

	ttl := h.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := h.revoker.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) List(c *gin.Context) {
	page := h.paginator.Parse(c)
	base := baseURL(c, h.baseURL)

	users, err := h.userService.List(c.Request.Context(), middleware.GetUserID(c), page, base)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondPage(c, base, page, users)
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.GetUserID(c), baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrUserNotFound)
		return
	}

	user, err := h.userService.Get(c.Request.Context(), middleware.GetUserID(c), userID, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req services.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userService.SetPassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetAvatar accepts {"avatar": "data:image/...;base64,..."} or a multipart "avatar" file.
func (h *UserHandler) SetAvatar(c *gin.Context) {
	img, err := h.readAvatar(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	avatar, err := h.userService.SetAvatar(c.Request.Context(), middleware.GetUserID(c), img, baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar": avatar})
}

func (h *UserHandler) readAvatar(c *gin.Context) (*media.Image, error) {
	if isMultipart(c) {
		img, err := readUpload(c, "avatar")
		if err != nil {
			return nil, err
		}
		if img == nil {
			return nil, errAvatarRequired
		}
		return img, nil
	}

	var req struct {
		Avatar string `json:"avatar" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, errAvatarRequired
	}
	return media.DecodeDataURI(req.Avatar)
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	if err := h.userService.DeleteAvatar(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page := h.paginator.Parse(c)
	base := baseURL(c, h.baseURL)

	subs, err := h.followService.Subscriptions(c.Request.Context(), middleware.GetUserID(c), page, recipesLimit(c), base)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondPage(c, base, page, subs)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrUserNotFound)
		return
	}

	author, err := h.followService.Follow(c.Request.Context(), middleware.GetUserID(c), targetID, recipesLimit(c), baseURL(c, h.baseURL))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, author)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	targetID, ok := parseID(c, "id")
	if !ok {
		respondError(c, h.logger, apperr.ErrUserNotFound)
		return
	}

	if err := h.followService.Unfollow(c.Request.Context(), middleware.GetUserID(c), targetID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit; a missing or invalid value means no limit.
func recipesLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || limit < 1 {
		return 0
	}
	return limit
}
