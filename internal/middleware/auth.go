package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/maxim190404/foodgram-st/internal/apperr"
)

const (
	userIDKey = "user_id"
	claimsKey = "jwt_claims"
)

var errInvalidToken = errors.New("invalid token")

// TokenDenylist reports revoked token IDs.
type TokenDenylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type JWTConfig struct {
	Secret   string
	Denylist TokenDenylist // optional
}

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 token for the user. Each token gets a unique ID so it can
// be revoked on logout.
func GenerateToken(userID uint, username, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errInvalidToken
	}
	return claims, nil
}

// NewJWTAuth rejects requests without a valid, unrevoked token.
func NewJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			abortUnauthenticated(c, apperr.ErrUnauthenticated.Message)
			return
		}
		if !authenticate(c, cfg, tokenString) {
			return
		}
		c.Next()
	}
}

// NewOptionalJWTAuth lets anonymous requests through but still rejects a token that is
// present and invalid.
func NewOptionalJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if !authenticate(c, cfg, tokenString) {
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, cfg *JWTConfig, tokenString string) bool {
	claims, err := ParseToken(tokenString, cfg.Secret)
	if err != nil {
		abortUnauthenticated(c, "invalid token")
		return false
	}

	if cfg.Denylist != nil {
		revoked, err := cfg.Denylist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to verify token"})
			return false
		}
		if revoked {
			abortUnauthenticated(c, "token has been revoked")
			return false
		}
	}

	c.Set(userIDKey, claims.UserID)
	c.Set(claimsKey, claims)
	return true
}

// extractToken accepts "Token <jwt>" and "Bearer <jwt>" Authorization headers.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token)
	}
	return ""
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  apperr.ErrUnauthenticated.Code,
	})
}

// GetUserID returns the authenticated user, or 0 for anonymous requests.
func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetClaims returns the claims of the request's token, or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}
