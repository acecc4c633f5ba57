package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gritworks/storefront/internal/config"
	"github.com/gritworks/storefront/internal/pkg/cache"
	"github.com/gritworks/storefront/internal/pkg/database"
	"github.com/gritworks/storefront/internal/pkg/logger"
	cacheRepo "github.com/gritworks/storefront/internal/repository/cache"
	"github.com/gritworks/storefront/internal/repository/postgres"
	"github.com/gritworks/storefront/internal/worker"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(cfg.Env)

	appLogger.Info("Starting stock worker...")

	// Connect to database
	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	appLogger.Info("Connected to database")

	// Connect to Redis (summaries are stored there)
	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()

	appLogger.Info("Connected to Redis")

	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductTTL,
		cfg.Cache.StockSummaryTTL,
	)

	// Create stock summarizer
	summarizer := worker.NewSummarizer(productRepo, redisCache, cfg.Worker.LowStockThreshold, appLogger)

	// Create stock worker
	stockWorker := worker.NewStockWorker(summarizer, appLogger)

	// Connect to NATS JetStream
	appLogger.Info("Connecting to NATS JetStream...")
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", err)
	}
	defer nc.Close()

	// Create JetStream context
	js, err := nc.JetStream()
	if err != nil {
		appLogger.Fatal("Failed to create JetStream context", err)
	}

	appLogger.WithFields(map[string]any{
		"url": cfg.NATS.URL,
	}).Info("Connected to NATS JetStream")

	// Initialize stream and consumer
	appLogger.Info("Initializing JetStream stream and consumer...")
	streamConfig := worker.NewStreamConfig(js, appLogger)

	if err := streamConfig.EnsureStream(); err != nil {
		appLogger.Fatal("Failed to ensure stream", err)
	}

	if err := streamConfig.EnsureConsumer(); err != nil {
		appLogger.Fatal("Failed to ensure consumer", err)
	}

	// Subscribe to catalog events using durable consumer
	// JetStream ensures exactly-once delivery with ack tracking
	sub, err := js.PullSubscribe("catalog.events", "stock-worker", nats.ManualAck())
	if err != nil {
		appLogger.Fatal("Failed to subscribe to JetStream consumer", err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Error("Failed to unsubscribe from JetStream", err)
		}
	}()

	appLogger.WithFields(map[string]any{
		"stream":   "CATALOG",
		"consumer": "stock-worker",
	}).Info("Subscribed to JetStream consumer")

	// Process messages in a goroutine
	go func() {
		for {
			// Fetch messages in batches (up to 10 at a time)
			msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
			if err != nil {
				if err == nats.ErrTimeout {
					// No messages available, continue polling
					continue
				}
				appLogger.WithFields(map[string]any{
					"error": err.Error(),
				}).Error("Failed to fetch messages from JetStream", err)
				time.Sleep(5 * time.Second)
				continue
			}

			for _, msg := range msgs {
				// Process the message
				if err := stockWorker.HandleEvent(msg.Data); err != nil {
					appLogger.WithFields(map[string]any{
						"error": err.Error(),
					}).Error("Failed to handle event", err)

					// Negative acknowledgment - message will be redelivered with exponential backoff
					// After 3 failed attempts (MaxDeliver), message is discarded
					// This is acceptable: next catalog event will trigger full recomputation
					if nackErr := msg.Nak(); nackErr != nil {
						appLogger.WithFields(map[string]any{
							"error": nackErr.Error(),
						}).Error("Failed to NACK message", nackErr)
					}
					continue
				}

				// Successful processing - acknowledge the message
				if ackErr := msg.Ack(); ackErr != nil {
					appLogger.WithFields(map[string]any{
						"error": ackErr.Error(),
					}).Error("Failed to ACK message", ackErr)
				}
			}
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	appLogger.Info("Received shutdown signal")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := stockWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.WithFields(map[string]any{
			"error": err.Error(),
		}).Error("Error during shutdown", err)
	}

	appLogger.Info("Stock worker stopped")
}
