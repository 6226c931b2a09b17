package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contentreview/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
			products.PATCH("/:id/content", handler.UpdateContent)
			products.POST("/:id/approve", handler.Approve)
			products.POST("/:id/reject", handler.Reject)
			products.GET("/:id/sources", handler.GetSources)
			products.GET("/:id/comparison", handler.CompareSources)
			products.POST("/:id/shopify/pull", handler.PullFromShopify)
			products.POST("/:id/shopify/sync", handler.SyncFromShopify)
		}

		v1.PATCH("/variants/:id", handler.UpdateVariant)
		v1.GET("/notifications", handler.ListNotifications)
	}

	return router
}
