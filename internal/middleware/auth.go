package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// Authenticator resolves a token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "authentication credentials were not provided"})
			return
		}
		if !authenticate(c, auth, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent and lets
// anonymous requests through.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if !authenticate(c, auth, token) {
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, auth Authenticator, token string) bool {
	user, err := auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, service.ErrTokenExpired) {
			msg = "token has expired"
		} else if !errors.Is(err, service.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
			return false
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: msg})
		return false
	}
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
	return true
}

// bearerToken accepts "Token <jwt>" and "Bearer <jwt>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return token, true
	}
	return "", false
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID is 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
