package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/service"
)

// HandleListOrders handles GET /orders?pageNumber=&limit=
func HandleListOrders(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		page, err := queryInt(c, "pageNumber", 1)
		if err != nil {
			badRequest(c, err)
			return
		}
		limit, err := queryInt(c, "limit", 0)
		if err != nil {
			badRequest(c, err)
			return
		}

		result, err := orders.ListOrders(c.Request.Context(), r, page, limit)
		if err != nil {
			respondError(c, logger, err, "Failed to list orders")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": newOrderResponses(result.Orders),
			"page":   result.Page,
			"pages":  result.Pages,
		})
	}
}

// HandleMarkDelivered handles PUT /orders/:id/deliver
func HandleMarkDelivered(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		order, err := orders.MarkDelivered(c.Request.Context(), r, c.Param("id"))
		if err != nil {
			respondError(c, logger, err, "Failed to mark order delivered")
			return
		}

		c.JSON(http.StatusOK, newOrderResponse(order))
	}
}

// HandleUpdateTracking handles PUT /orders/:id/tracking
func HandleUpdateTracking(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		var req service.TrackingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		order, err := orders.UpdateTracking(c.Request.Context(), r, c.Param("id"), req)
		if err != nil {
			respondError(c, logger, err, "Failed to update tracking")
			return
		}

		c.JSON(http.StatusOK, newOrderResponse(order))
	}
}

// HandleGetSummary handles GET /orders/summary
func HandleGetSummary(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		summary, err := orders.Summary(c.Request.Context(), r)
		if err != nil {
			respondError(c, logger, err, "Failed to build summary")
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// HandleGetSalesData handles GET /orders/summary/sales-data
func HandleGetSalesData(orders *service.OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		series, err := orders.SalesData(c.Request.Context(), r)
		if err != nil {
			respondError(c, logger, err, "Failed to build sales data")
			return
		}

		c.JSON(http.StatusOK, series)
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
