package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/pkg/errors"
)

const (
	requesterKey = "requester"
	tokenKey     = "token"
)

// Authenticator resolves a bearer token to the caller
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Requester, error)
}

// AuthMiddleware validates the bearer token and stores the requester in the context
func AuthMiddleware(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, no token"})
			return
		}

		requester, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := errors.HTTPStatus(err)
			if status == http.StatusInternalServerError {
				logging.FromContext(c.Request.Context(), logger).Error("Failed to resolve session", zap.Error(err))
				c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
				return
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}

		c.Set(requesterKey, *requester)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// AdminMiddleware rejects authenticated callers without the admin flag.
// It must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := GetRequesterFromContext(c)
		if !ok || !requester.IsAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized as an admin"})
			return
		}
		c.Next()
	}
}

// GetRequesterFromContext retrieves the requester from the Gin context
func GetRequesterFromContext(c *gin.Context) (domain.Requester, bool) {
	v, exists := c.Get(requesterKey)
	if !exists {
		return domain.Requester{}, false
	}
	requester, ok := v.(domain.Requester)
	return requester, ok
}

// GetTokenFromContext returns the bearer token of the current request
func GetTokenFromContext(c *gin.Context) (string, bool) {
	token := c.GetString(tokenKey)
	return token, token != ""
}
