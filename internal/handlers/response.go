package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/maxim190404/foodgram-st/internal/apperr"
	"github.com/maxim190404/foodgram-st/internal/services"
	"github.com/maxim190404/foodgram-st/pkg/logger"
)

var errInvalidPage = apperr.New(apperr.KindNotFound, "invalid_page", "invalid page")

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindEncoding:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindPermission:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error", "code"}. Errors without a kind are logged and
// hidden behind a generic 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		_ = c.Error(err)
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(statusOf(kind), gin.H{"error": err.Error(), "code": apperr.CodeOf(err)})
}

// respondBindError reports a request body or query that failed to bind.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "code": "invalid_request", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
}

// baseURL is the configured public base URL, or the scheme and host of the request.
func baseURL(c *gin.Context, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Paginator reads page/limit query parameters and builds paginated responses.
type Paginator struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paginator) Parse(c *gin.Context) services.Pagination {
	page := 1
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	limit := p.DefaultLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return services.Pagination{Page: page, Limit: limit}
}

// respondPage writes {"count","next","previous","results"}. A page past the end is a 404
// unless it is the first page.
func respondPage[T any](c *gin.Context, base string, page services.Pagination, result *services.Page[T]) {
	if page.Page > 1 && int64(page.Offset()) >= result.Count {
		c.JSON(http.StatusNotFound, gin.H{"error": errInvalidPage.Message, "code": errInvalidPage.Code})
		return
	}

	items := result.Items
	if items == nil {
		items = []T{}
	}

	var next, previous interface{}
	if int64(page.Offset()+len(result.Items)) < result.Count {
		next = pageURL(c, base, page.Page+1)
	}
	if page.Page > 1 {
		previous = pageURL(c, base, page.Page-1)
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    result.Count,
		"next":     next,
		"previous": previous,
		"results":  items,
	})
}

func pageURL(c *gin.Context, base string, page int) string {
	query := url.Values{}
	for k, v := range c.Request.URL.Query() {
		query[k] = v
	}
	query.Set("page", strconv.Itoa(page))
	return base + c.Request.URL.Path + "?" + query.Encode()
}
