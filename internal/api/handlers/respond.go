package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api/middleware"
	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/logging"
	"github.com/jafarshop/storefront/pkg/errors"
)

// respondError writes err with the status of its kind. Unclassified errors
// are logged and hidden behind a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error, msg string) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context(), logger).Error(msg, zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// requester returns the authenticated caller or answers 401
func requester(c *gin.Context) (domain.Requester, bool) {
	r, ok := middleware.GetRequesterFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return r, ok
}
