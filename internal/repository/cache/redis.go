package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gritworks/storefront/internal/domain"
)

// RedisCache implements caching for product aggregates and stock summaries
type RedisCache struct {
	client          *redis.Client
	productTTL      time.Duration
	stockSummaryTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, productTTL, stockSummaryTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          client,
		productTTL:      productTTL,
		stockSummaryTTL: stockSummaryTTL,
	}
}

// Product aggregate cache keys and methods

func (c *RedisCache) productKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s", productID.String())
}

// GetProduct retrieves a cached product aggregate
func (c *RedisCache) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	key := c.productKey(productID)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		return nil, err
	}

	return &product, nil
}

// SetProduct stores a product aggregate in cache
func (c *RedisCache) SetProduct(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}

	key := c.productKey(product.ID)
	return c.client.Set(ctx, key, data, c.productTTL).Err()
}

// InvalidateProduct removes a product aggregate from cache
func (c *RedisCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	key := c.productKey(productID)
	return c.client.Del(ctx, key).Err()
}

// Stock summary cache keys and methods

func (c *RedisCache) stockSummaryKey(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:stock", productID.String())
}

// GetStockSummary retrieves the cached stock summary for a product
func (c *RedisCache) GetStockSummary(ctx context.Context, productID uuid.UUID) (*domain.StockSummary, error) {
	key := c.stockSummaryKey(productID)
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var summary domain.StockSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}

// SetStockSummary stores the stock summary for a product
func (c *RedisCache) SetStockSummary(ctx context.Context, summary *domain.StockSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	key := c.stockSummaryKey(summary.ProductID)
	return c.client.Set(ctx, key, data, c.stockSummaryTTL).Err()
}

// InvalidateStockSummary removes the stock summary for a product
func (c *RedisCache) InvalidateStockSummary(ctx context.Context, productID uuid.UUID) error {
	key := c.stockSummaryKey(productID)
	return c.client.Del(ctx, key).Err()
}

// InvalidateAllProductCache invalidates all cache entries for a product
func (c *RedisCache) InvalidateAllProductCache(ctx context.Context, productID uuid.UUID) error {
	keys := []string{
		c.productKey(productID),
		c.stockSummaryKey(productID),
	}
	return c.client.Unlink(ctx, keys...).Err()
}
