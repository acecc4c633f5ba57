package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gritworks/storefront/internal/domain"
	"github.com/gritworks/storefront/internal/pkg/logger"
)

// SummaryCache persists computed stock summaries
type SummaryCache interface {
	SetStockSummary(ctx context.Context, summary *domain.StockSummary) error
	InvalidateStockSummary(ctx context.Context, productID uuid.UUID) error
}

// Summarizer recomputes a product's stock summary from the stored aggregate
// and writes it to the cache. Full recomputation keeps the summary
// self-correcting: a lost event is repaired by the next one.
type Summarizer struct {
	repo              domain.ProductRepository
	cache             SummaryCache
	lowStockThreshold int
	logger            *logger.Logger
}

// NewSummarizer creates a new stock summarizer
func NewSummarizer(repo domain.ProductRepository, cache SummaryCache, lowStockThreshold int, log *logger.Logger) *Summarizer {
	return &Summarizer{
		repo:              repo,
		cache:             cache,
		lowStockThreshold: lowStockThreshold,
		logger:            log,
	}
}

// SummarizeAndStore recomputes the stock summary for a product.
// A deleted product drops its cached summary instead of failing.
func (s *Summarizer) SummarizeAndStore(ctx context.Context, productID uuid.UUID) error {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.WithFields(map[string]any{
				"product_id": productID.String(),
			}).Info("Product not found or deleted, dropping stock summary")

			if err := s.cache.InvalidateStockSummary(ctx, productID); err != nil {
				return fmt.Errorf("failed to drop stock summary: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	summary := product.StockSummary(s.lowStockThreshold)
	if err := s.cache.SetStockSummary(ctx, &summary); err != nil {
		return fmt.Errorf("failed to store stock summary: %w", err)
	}

	s.logger.WithFields(map[string]any{
		"product_id":   productID.String(),
		"total_stock":  summary.TotalStock,
		"out_of_stock": summary.OutOfStock,
		"low_stock":    len(summary.LowStockSKUs),
	}).Info("Successfully updated stock summary")

	return nil
}
