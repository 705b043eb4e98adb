package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/service"
)

// HandleListProducts handles GET /products?pageNumber=&category=&sort=
func HandleListProducts(catalog *service.CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := queryInt(c, "pageNumber", 1)
		if err != nil {
			badRequest(c, err)
			return
		}

		result, err := catalog.ListProducts(c.Request.Context(), page, c.Query("category"), c.Query("sort"))
		if err != nil {
			respondError(c, logger, err, "Failed to list products")
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// HandleGetProduct handles GET /products/:id
func HandleGetProduct(catalog *service.CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := catalog.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err, "Failed to get product")
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// HandleCreateProduct handles POST /products
func HandleCreateProduct(catalog *service.CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		var req service.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		product, err := catalog.CreateProduct(c.Request.Context(), r, req)
		if err != nil {
			respondError(c, logger, err, "Failed to create product")
			return
		}

		c.JSON(http.StatusCreated, product)
	}
}

// HandleSetStock handles PUT /products/:id/stock
func HandleSetStock(catalog *service.CatalogService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := requester(c)
		if !ok {
			return
		}

		var req service.SetStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		product, err := catalog.SetStock(c.Request.Context(), r, c.Param("id"), *req.CountInStock)
		if err != nil {
			respondError(c, logger, err, "Failed to set stock")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}
