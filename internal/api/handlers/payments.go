package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/cart"
	"github.com/jafarshop/storefront/internal/service"
)

// HandleCreatePaymentIntent handles POST /orders/create-razorpay-order
func HandleCreatePaymentIntent(payments *service.PaymentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.PaymentIntentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		intent, err := payments.CreatePaymentIntent(c.Request.Context(), req.Amount)
		if err != nil {
			respondError(c, logger, err, "Failed to create payment intent")
			return
		}

		c.JSON(http.StatusOK, intent)
	}
}

// HandleGetRazorpayConfig handles GET /config/razorpay
func HandleGetRazorpayConfig(payments *service.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"keyId":    payments.KeyID(),
			"currency": payments.Currency(),
		})
	}
}

// HandleGetPricing handles GET /config/pricing
func HandleGetPricing(rules cart.PriceRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, rules)
	}
}
