package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/domain"
	"github.com/jafarshop/storefront/internal/service"
)

// OrderResponse is an order plus its derived display status
type OrderResponse struct {
	*domain.Order
	Status domain.OrderStatus `json:"status"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{Order: o, Status: domain.ClassifyOrderStatus(o)}
}

func newOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = newOrderResponse(o)
	}
	return out
}

// HandleCreateOrder handles POST /orders
func HandleCreateOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		order, err := orders.CreateOrder(c.Request.Context(), r, req)
		if err != nil {
			respondError(c, logger, err, "Failed to create order")
			return
		}

		c.JSON(http.StatusCreated, newOrderResponse(order))
	}
}

// HandleGetMyOrders handles GET /orders/myorders
func HandleGetMyOrders(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		list, err := orders.ListMyOrders(c.Request.Context(), r)
		if err != nil {
			respondError(c, logger, err, "Failed to list orders")
			return
		}

		c.JSON(http.StatusOK, newOrderResponses(list))
	}
}

// HandleGetOrder handles GET /orders/:id
func HandleGetOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		order, err := orders.GetOrder(c.Request.Context(), r, c.Param("id"))
		if err != nil {
			respondError(c, logger, err, "Failed to get order")
			return
		}

		c.JSON(http.StatusOK, newOrderResponse(order))
	}
}

// HandleCancelOrder handles PUT /orders/:id/cancel
func HandleCancelOrder(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		var req service.CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		order, err := orders.CancelOrder(c.Request.Context(), r, c.Param("id"), req.Reason)
		if err != nil {
			respondError(c, logger, err, "Failed to cancel order")
			return
		}

		c.JSON(http.StatusOK, newOrderResponse(order))
	}
}
