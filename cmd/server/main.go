package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/contentreview/backend/config"
	httpDelivery "github.com/contentreview/backend/internal/delivery/http"
	"github.com/contentreview/backend/internal/domain"
	"github.com/contentreview/backend/internal/infrastructure/cache"
	"github.com/contentreview/backend/internal/infrastructure/logging"
	"github.com/contentreview/backend/internal/infrastructure/nocodb"
	"github.com/contentreview/backend/internal/infrastructure/notify"
	"github.com/contentreview/backend/internal/infrastructure/shopify"
	"github.com/contentreview/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting content review backend v1.0.0",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
		zap.String("shopify_mode", cfg.Shopify.Mode),
	)

	// Initialize infrastructure dependencies
	cacheRepo, closeCache, err := newCache(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer closeCache()

	store := nocodb.NewClient(nocodb.Config{
		BaseURL:  cfg.NocoDB.BaseURL,
		Token:    cfg.NocoDB.Token,
		BaseName: cfg.NocoDB.BaseName,
		Tables: nocodb.Tables{
			Parents:  cfg.NocoDB.ParentsTable,
			Variants: cfg.NocoDB.VariantsTable,
			Webhooks: cfg.NocoDB.WebhooksTable,
			Products: cfg.NocoDB.ProductsTable,
		},
		PageSize:          cfg.NocoDB.PageSize,
		VariantPageSize:   cfg.NocoDB.VariantPageSize,
		Timeout:           cfg.NocoDB.Timeout,
		RequestsPerSecond: cfg.RateLimit.NocoDB,
	}, logger)

	shopifyClient := shopify.NewClient(shopify.Config{
		Mode:        shopify.Mode(cfg.Shopify.Mode),
		ShopDomain:  cfg.Shopify.ShopDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		ProxyURL:    cfg.Shopify.ProxyURL,
		Timeout:     cfg.Shopify.Timeout,
	}, logger)

	feed := notify.NewFeed(100, logger)

	// Initialize usecase layer
	reviewService := usecase.NewReviewService(
		store,
		store,
		cacheRepo,
		feed,
		logger.Named("review"),
		usecase.ReviewServiceConfig{CacheTTL: cfg.Cache.TTL},
	)
	syncService := usecase.NewSyncService(
		store,
		shopifyClient,
		feed,
		logger.Named("sync"),
		usecase.SyncServiceConfig{Workers: cfg.Sync.Workers},
	)

	handler := httpDelivery.NewHandler(reviewService, syncService, feed, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newCache builds the cache backend named in the config and returns a
// matching close function.
func newCache(cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisCache(rdb, "contentreview:"), func() { _ = rdb.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache(10 * time.Minute)
	return memoryCache, func() { _ = memoryCache.Close() }, nil
}
