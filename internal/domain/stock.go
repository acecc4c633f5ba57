package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockSummary is a per-product inventory rollup computed asynchronously by
// the stock worker and served from cache. Options with no stock at all mark
// the product out of stock; options at or below the configured threshold
// are listed by SKU.
type StockSummary struct {
	ProductID    uuid.UUID `json:"product_id"`
	TotalStock   int       `json:"total_stock"`
	OutOfStock   bool      `json:"out_of_stock"`
	LowStockSKUs []string  `json:"low_stock_skus,omitempty"`
	ComputedAt   time.Time `json:"computed_at"`
}

// StockSummary rolls up option stock across the variant tree. A product
// with no options at all is considered out of stock.
func (p *Product) StockSummary(lowStockThreshold int) StockSummary {
	summary := StockSummary{
		ProductID:  p.ID,
		ComputedAt: time.Now(),
	}

	for _, variant := range p.Variants {
		for _, option := range variant.Options {
			summary.TotalStock += option.Stock
			if option.Stock <= lowStockThreshold {
				summary.LowStockSKUs = append(summary.LowStockSKUs, option.SKU)
			}
		}
	}

	summary.OutOfStock = summary.TotalStock == 0
	return summary
}
