package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gritworks/storefront/internal/domain"
	"github.com/gritworks/storefront/internal/pkg/logger"
)

const (
	// Debounce window - collect events for same product within this duration
	debounceWindow = 1 * time.Second

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// StockWorker processes catalog events and recomputes product stock
// summaries asynchronously
type StockWorker struct {
	summarizer *Summarizer
	logger     *logger.Logger

	// Debouncing state
	mu             sync.Mutex
	pendingUpdates map[uuid.UUID]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	productID uuid.UUID
	timestamp time.Time
	timer     *time.Timer
}

// NewStockWorker creates a new stock worker
func NewStockWorker(summarizer *Summarizer, logger *logger.Logger) *StockWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &StockWorker{
		summarizer:     summarizer,
		logger:         logger,
		pendingUpdates: make(map[uuid.UUID]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent processes a catalog event
func (w *StockWorker) HandleEvent(data []byte) error {
	var event domain.CatalogEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.WithFields(map[string]any{
			"error": err.Error(),
		}).Error("Failed to unmarshal catalog event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]any{
		"type":       event.EventType,
		"product_id": event.ProductID.String(),
		"timestamp":  event.Timestamp,
	}).Info("Received catalog event")

	// Schedule summary update with debouncing
	w.scheduleUpdate(event.ProductID, event.Timestamp)

	return nil
}

// scheduleUpdate implements debouncing logic
// Multiple events for same product within debounce window result in single
// summary recomputation
func (w *StockWorker) scheduleUpdate(productID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Check if already shutting down
	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingUpdates[productID]

	// If we have a pending update, check if this event is newer
	if found {
		// Ignore stale events
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"product_id":  productID.String(),
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		// Cancel existing timer (we'll create a new one)
		existing.timer.Stop()
		w.logger.WithFields(map[string]any{
			"product_id": productID.String(),
		}).Debug("Debouncing: resetting timer for product")
	} else {
		// New product, increment wait group
		w.wg.Add(1)
	}

	// Create new timer for debounced update
	timer := time.AfterFunc(debounceWindow, func() {
		w.processUpdate(productID)
	})

	w.pendingUpdates[productID] = &pendingUpdate{
		productID: productID,
		timestamp: timestamp,
		timer:     timer,
	}
}

// processUpdate executes the summary recomputation with retry logic
func (w *StockWorker) processUpdate(productID uuid.UUID) {
	defer w.wg.Done()

	w.mu.Lock()
	delete(w.pendingUpdates, productID)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"product_id": productID.String(),
	}).Info("Processing stock summary update")

	// Retry loop with exponential backoff
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"product_id": productID.String(),
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying stock summary update")

			select {
			case <-time.After(backoff):
				// Continue with retry
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		// Create context with timeout for each attempt
		ctx, cancel := context.WithTimeout(w.ctx, 5*time.Second)
		err := w.summarizer.SummarizeAndStore(ctx, productID)
		cancel()

		if err == nil {
			return
		}

		lastErr = err
		w.logger.WithFields(map[string]any{
			"product_id": productID.String(),
			"attempt":    attempt + 1,
			"error":      err.Error(),
		}).Error("Failed to update stock summary", err)
	}

	// All retries exhausted
	w.logger.WithFields(map[string]any{
		"product_id":  productID.String(),
		"max_retries": maxRetries,
		"error":       lastErr.Error(),
	}).Error("Stock summary update failed after all retries", lastErr)
}

// Shutdown gracefully shuts down the worker
// Cancels pending timers and waits for in-flight updates to complete
func (w *StockWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down stock worker...")

	// Signal shutdown to prevent new updates
	close(w.shutdownCh)

	// Cancel context to stop retries
	w.cancel()

	// Cancel all pending timers. Stop reports whether the timer was still
	// pending; a timer that already fired has a processUpdate goroutine in
	// flight which owns that wg slot, so only decrement for true cancels.
	w.mu.Lock()
	pendingCount := len(w.pendingUpdates)
	for _, update := range w.pendingUpdates {
		if update.timer.Stop() {
			w.wg.Done()
		}
	}
	w.pendingUpdates = make(map[uuid.UUID]*pendingUpdate)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": pendingCount,
	}).Info("Cancelled pending updates")

	// Wait for in-flight updates to complete or context timeout
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// GetPendingCount returns the number of pending updates (used for monitoring/testing)
func (w *StockWorker) GetPendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingUpdates)
}
