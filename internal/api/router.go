package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/storefront/internal/api/handlers"
	"github.com/jafarshop/storefront/internal/api/middleware"
	"github.com/jafarshop/storefront/internal/cart"
	"github.com/jafarshop/storefront/internal/config"
	"github.com/jafarshop/storefront/internal/metrics"
	"github.com/jafarshop/storefront/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc *service.Services, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Observability(logger, m))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	auth := middleware.AuthMiddleware(svc.Auth, logger)
	admin := middleware.AdminMiddleware()

	pricing := cart.DefaultPriceRules
	pricing.TaxRate = cfg.Orders.TaxRate

	users := router.Group("/users")
	{
		users.POST("", handlers.HandleRegister(svc.Auth, logger))
		users.POST("/login", handlers.HandleLogin(svc.Auth, logger))
		users.POST("/logout", auth, handlers.HandleLogout(svc.Auth, logger))
		users.GET("/profile", auth, handlers.HandleGetProfile(svc.Auth, logger))
	}

	products := router.Group("/products")
	{
		products.GET("", handlers.HandleListProducts(svc.Catalog, logger))
		products.GET("/:id", handlers.HandleGetProduct(svc.Catalog, logger))
		products.POST("", auth, admin, handlers.HandleCreateProduct(svc.Catalog, logger))
		products.PUT("/:id/stock", auth, admin, handlers.HandleSetStock(svc.Catalog, logger))
	}

	configRoutes := router.Group("/config")
	{
		configRoutes.GET("/pricing", handlers.HandleGetPricing(pricing))
		configRoutes.GET("/razorpay", auth, handlers.HandleGetRazorpayConfig(svc.Payments))
	}

	// Order routes (require authentication)
	orders := router.Group("/orders")
	orders.Use(auth)
	{
		orders.POST("", handlers.HandleCreateOrder(svc.Orders, logger))
		orders.POST("/create-razorpay-order", handlers.HandleCreatePaymentIntent(svc.Payments, logger))
		orders.GET("/myorders", handlers.HandleGetMyOrders(svc.Orders, logger))
		orders.GET("/:id", handlers.HandleGetOrder(svc.Orders, logger))
		orders.PUT("/:id/cancel", handlers.HandleCancelOrder(svc.Orders, logger))

		// Admin routes
		orders.GET("", admin, handlers.HandleListOrders(svc.Orders, logger))
		orders.GET("/summary", admin, handlers.HandleGetSummary(svc.Orders, logger))
		orders.GET("/summary/sales-data", admin, handlers.HandleGetSalesData(svc.Orders, logger))
		orders.PUT("/:id/deliver", admin, handlers.HandleMarkDelivered(svc.Orders, logger))
		orders.PUT("/:id/tracking", admin, handlers.HandleUpdateTracking(svc.Orders, logger))
	}

	return router
}
