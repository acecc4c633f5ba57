package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gritworks/storefront/internal/domain"
	"github.com/gritworks/storefront/internal/pkg/logger"
	pkgvalidator "github.com/gritworks/storefront/internal/pkg/validator"
)

// catalogSubject is the NATS subject catalog events are published to.
const catalogSubject = "catalog.events"

// maxUpdateRetries bounds the read-modify-write loop when a conditional
// write loses the version race.
const maxUpdateRetries = 3

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ProductCache defines the cache operations the service needs
type ProductCache interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	GetStockSummary(ctx context.Context, productID uuid.UUID) (*domain.StockSummary, error)
	SetStockSummary(ctx context.Context, summary *domain.StockSummary) error
	InvalidateAllProductCache(ctx context.Context, productID uuid.UUID) error
}

// CreateInput is the validated payload for creating a product. Price is a
// pointer so that a missing price is distinguishable from a free product.
type CreateInput struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Category    string   `json:"category" validate:"required,min=1,max=100"`
	Subcategory string   `json:"subcategory" validate:"required,min=1,max=100"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Description *string  `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// UpdateInput is a partial update of scalar product fields. Variants are
// never touched through this path.
type UpdateInput struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Subcategory *string  `json:"subcategory,omitempty" validate:"omitempty,min=1,max=100"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Description *string  `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

func (in UpdateInput) apply(p *domain.Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Subcategory != nil {
		p.Subcategory = *in.Subcategory
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Images != nil {
		p.Images = in.Images
	}
}

// Service handles product business logic
type Service struct {
	repo              domain.ProductRepository
	cache             ProductCache
	publisher         EventPublisher
	validate          *validator.Validate
	logger            *logger.Logger
	lowStockThreshold int
}

// NewService creates a new product service
func NewService(
	repo domain.ProductRepository,
	cache ProductCache,
	publisher EventPublisher,
	lowStockThreshold int,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:              repo,
		cache:             cache,
		publisher:         publisher,
		validate:          pkgvalidator.Get(),
		logger:            log,
		lowStockThreshold: lowStockThreshold,
	}
}

// Create creates a new product with an empty variant collection
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Product validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	product := &domain.Product{
		Name:        in.Name,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Price:       *in.Price,
		Description: in.Description,
		Images:      in.Images,
		Variants:    domain.VariantList{},
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", err)
		return nil, err
	}

	s.publishEvent(ctx, domain.EventProductCreated, product.ID, product)

	s.logger.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("Product created successfully")

	return product, nil
}

// GetByID retrieves a product by ID, reading through the cache
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.cache.GetProduct(ctx, id)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s", id)
		return product, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Cache lookup failed for product %s: %v", id, err)
	}

	product, err = s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to get product", err)
		}
		return nil, err
	}

	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warnf("Failed to cache product %s: %v", id, err)
	}

	return product, nil
}

// List retrieves a paginated list of products
func (s *Service) List(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	return products, total, nil
}

// Update applies a partial update to scalar product fields. The write is
// conditional on the loaded version and retried a bounded number of times
// before surfacing the conflict.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Product validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		product, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Debugf("Product not found: %s", id)
			} else {
				s.logger.Error("Failed to get product for update", err)
			}
			return nil, err
		}

		in.apply(product)

		err = s.repo.Update(ctx, product)
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Debugf("Version conflict updating product %s, retrying", id)
			continue
		}
		if err != nil {
			s.logger.Error("Failed to update product", err)
			return nil, err
		}

		if err := s.cache.InvalidateAllProductCache(ctx, id); err != nil {
			s.logger.Warnf("Failed to invalidate cache for product %s: %v", id, err)
		}

		s.publishEvent(ctx, domain.EventProductUpdated, id, product)

		s.logger.WithFields(map[string]interface{}{
			"product_id": product.ID,
			"name":       product.Name,
		}).Info("Product updated successfully")

		return product, nil
	}

	s.logger.Warnf("Giving up on product %s update after %d version conflicts", id, maxUpdateRetries)
	return nil, domain.ErrConflict
}

// Delete soft-deletes a product, cascading over its variants and options
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", id)
		} else {
			s.logger.Error("Failed to delete product", err)
		}
		return err
	}

	if err := s.cache.InvalidateAllProductCache(ctx, id); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", id, err)
	}

	s.publishEvent(ctx, domain.EventProductDeleted, id, nil)

	s.logger.WithFields(map[string]interface{}{
		"product_id": id,
	}).Info("Product deleted successfully")

	return nil
}

// GetStockSummary returns the per-product stock rollup. The stock worker
// keeps the cached copy fresh; on a miss the summary is computed from the
// aggregate and cached.
func (s *Service) GetStockSummary(ctx context.Context, id uuid.UUID) (*domain.StockSummary, error) {
	summary, err := s.cache.GetStockSummary(ctx, id)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s stock summary", id)
		return summary, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warnf("Stock summary cache lookup failed for product %s: %v", id, err)
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	computed := product.StockSummary(s.lowStockThreshold)
	if err := s.cache.SetStockSummary(ctx, &computed); err != nil {
		s.logger.Warnf("Failed to cache stock summary for product %s: %v", id, err)
	}

	return &computed, nil
}

// publishEvent publishes a catalog event (non-blocking)
func (s *Service) publishEvent(ctx context.Context, eventType string, productID uuid.UUID, product *domain.Product) {
	event := domain.CatalogEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ProductID: productID,
		Product:   product,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for product %s", productID)
		return
	}

	// Publish in background to avoid blocking
	go func() {
		if err := s.publisher.Publish(context.Background(), catalogSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for product %s", productID)
		}
	}()
}
