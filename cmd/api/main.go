package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gritworks/storefront/internal/config"
	"github.com/gritworks/storefront/internal/delivery/events"
	httpDelivery "github.com/gritworks/storefront/internal/delivery/http"
	"github.com/gritworks/storefront/internal/delivery/http/handler"
	"github.com/gritworks/storefront/internal/pkg/cache"
	"github.com/gritworks/storefront/internal/pkg/database"
	"github.com/gritworks/storefront/internal/pkg/logger"
	cacheRepo "github.com/gritworks/storefront/internal/repository/cache"
	"github.com/gritworks/storefront/internal/repository/postgres"
	"github.com/gritworks/storefront/internal/usecase/product"
	"github.com/gritworks/storefront/internal/usecase/variant"

	_ "github.com/gritworks/storefront/docs"
)

// @title Storefront Catalog API
// @version 1.0
// @description Product catalog service for the storefront: products, variants, purchase options, stock summaries.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/gritworks/storefront
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Products
// @tag.description Product management endpoints

// @tag.name Variants
// @tag.description Variant and purchase option endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Storefront Catalog API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	// The API may boot before the stock worker, so provision the stream here
	// too or the first catalog events would be rejected.
	if err := publisher.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure JetStream stream", err)
	}

	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductTTL,
		cfg.Cache.StockSummaryTTL,
	)

	productService := product.NewService(productRepo, redisCache, publisher, cfg.Worker.LowStockThreshold, appLogger)
	variantService := variant.NewService(productRepo, redisCache, publisher, appLogger)

	productHandler := handler.NewProductHandler(productService, appLogger)
	variantHandler := handler.NewVariantHandler(variantService, appLogger)

	router := httpDelivery.NewRouter(productHandler, variantHandler, cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
