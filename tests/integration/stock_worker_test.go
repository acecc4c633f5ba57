//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gritworks/storefront/internal/config"
	"github.com/gritworks/storefront/internal/domain"
	"github.com/gritworks/storefront/internal/pkg/cache"
	"github.com/gritworks/storefront/internal/pkg/database"
	"github.com/gritworks/storefront/internal/pkg/logger"
	cacheRepo "github.com/gritworks/storefront/internal/repository/cache"
	"github.com/gritworks/storefront/internal/repository/postgres"
	"github.com/gritworks/storefront/internal/worker"
)

func strPtr(s string) *string {
	return &s
}

func TestStockWorker_EndToEnd(t *testing.T) {
	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)

	// Setup logger
	log := logger.New(cfg.Env)

	// Connect to database
	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.RunMigrations(db))

	// Connect to Redis
	redisClient, err := cache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	defer redisClient.Close()

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATS.URL)
	require.NoError(t, err)
	defer nc.Close()

	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductTTL,
		cfg.Cache.StockSummaryTTL,
	)

	// Create summarizer and worker
	summarizer := worker.NewSummarizer(productRepo, redisCache, cfg.Worker.LowStockThreshold, log)
	stockWorker := worker.NewStockWorker(summarizer, log)

	// Subscribe to catalog events
	_, err = nc.Subscribe("catalog.events", func(msg *nats.Msg) {
		_ = stockWorker.HandleEvent(msg.Data)
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Create test product with a mixed-stock variant tree
	product := &domain.Product{
		Name:        "Worker Fixture Blaster",
		Category:    "Equipment",
		Subcategory: "Blasters",
		Price:       199.99,
		Description: strPtr("Integration test product"),
		Variants: domain.VariantList{
			{
				ID:   uuid.New(),
				Name: "Tank Size",
				Options: []domain.Option{
					{ID: uuid.New(), Name: "20L", Stock: 2, SKU: "WF-20"},
					{ID: uuid.New(), Name: "40L", Stock: 30, SKU: "WF-40"},
				},
			},
		},
	}
	err = productRepo.Create(ctx, product)
	require.NoError(t, err)

	// Cleanup function
	defer func() {
		_ = productRepo.Delete(ctx, product.ID)
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = stockWorker.Shutdown(shutdownCtx)
	}()

	// Publish a catalog event for the product
	event := domain.CatalogEvent{
		EventType: domain.EventProductUpdated,
		ProductID: product.ID,
		Timestamp: time.Now(),
	}
	eventData, _ := json.Marshal(event)
	err = nc.Publish("catalog.events", eventData)
	require.NoError(t, err)

	// Wait for event processing (debounce window + processing time)
	time.Sleep(2 * time.Second)

	// Verify the summary landed in the cache
	summary, err := redisCache.GetStockSummary(ctx, product.ID)
	require.NoError(t, err)

	assert.Equal(t, product.ID, summary.ProductID)
	assert.Equal(t, 32, summary.TotalStock)
	assert.False(t, summary.OutOfStock)
	assert.Equal(t, []string{"WF-20"}, summary.LowStockSKUs)
}

func TestStockWorker_Debouncing(t *testing.T) {
	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)

	// Setup logger
	log := logger.New(cfg.Env)

	// Connect to database
	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, database.RunMigrations(db))

	// Connect to Redis
	redisClient, err := cache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)
	defer redisClient.Close()

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATS.URL)
	require.NoError(t, err)
	defer nc.Close()

	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductTTL,
		cfg.Cache.StockSummaryTTL,
	)

	summarizer := worker.NewSummarizer(productRepo, redisCache, cfg.Worker.LowStockThreshold, log)
	stockWorker := worker.NewStockWorker(summarizer, log)

	_, err = nc.Subscribe("catalog.events", func(msg *nats.Msg) {
		_ = stockWorker.HandleEvent(msg.Data)
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Create test product
	product := &domain.Product{
		Name:        "High Traffic Product",
		Category:    "Consumables",
		Subcategory: "Media",
		Price:       49.99,
		Variants: domain.VariantList{
			{
				ID:   uuid.New(),
				Name: "Grit",
				Options: []domain.Option{
					{ID: uuid.New(), Name: "80", Stock: 100, SKU: "HT-80"},
				},
			},
		},
	}
	err = productRepo.Create(ctx, product)
	require.NoError(t, err)

	// Cleanup function
	defer func() {
		_ = productRepo.Delete(ctx, product.ID)
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = stockWorker.Shutdown(shutdownCtx)
	}()

	// Publish 20 events rapidly
	for i := 0; i < 20; i++ {
		event := domain.CatalogEvent{
			EventType: domain.EventOptionUpdated,
			ProductID: product.ID,
			Timestamp: time.Now(),
		}
		eventData, _ := json.Marshal(event)
		err = nc.Publish("catalog.events", eventData)
		require.NoError(t, err)
	}

	// Check that events are being debounced (should be 1 or very few pending)
	time.Sleep(500 * time.Millisecond)
	pendingCount := stockWorker.GetPendingCount()
	assert.LessOrEqual(t, pendingCount, 2, "Events should be debounced")

	// Wait for final processing
	time.Sleep(2 * time.Second)

	// Verify the summary is present and correct
	summary, err := redisCache.GetStockSummary(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, summary.TotalStock)
	assert.False(t, summary.OutOfStock)
}
