package variant

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

const catalogSubject = "catalog.events"

// maxUpdateRetries bounds the read-modify-write loop. Variant and option
// edits rewrite the owning product row, so two concurrent edits on the same
// product race on the version column and the loser retries.
const maxUpdateRetries = 3

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ProductCache defines the cache operations the service needs
type ProductCache interface {
	InvalidateAllProductCache(ctx context.Context, productID uuid.UUID) error
}

// AddVariantInput is the validated payload for appending a variant to a
// product. Options may be supplied up front or added later one by one.
type AddVariantInput struct {
	Name    string        `json:"name" validate:"required,min=1,max=100"`
	Options []OptionInput `json:"options,omitempty" validate:"dive"`
}

// UpdateVariantInput is a partial update of scalar variant fields; options
// are managed through the option operations.
type UpdateVariantInput struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

// OptionInput is the validated payload for creating an option. Numeric
// fields must be non-negative; a violating payload refuses the whole
// mutation rather than being coerced.
type OptionInput struct {
	Name   string   `json:"name" validate:"required,min=1,max=100"`
	Stock  int      `json:"stock" validate:"gte=0"`
	Price  *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Weight float64  `json:"weight" validate:"gte=0"`
	SKU    string   `json:"sku" validate:"max=64"`
}

func (in OptionInput) toDomain() domain.Option {
	return domain.Option{
		ID:     uuid.New(),
		Name:   in.Name,
		Stock:  in.Stock,
		Price:  in.Price,
		Weight: in.Weight,
		SKU:    in.SKU,
	}
}

// UpdateOptionInput is a partial update of option fields.
type UpdateOptionInput struct {
	Name   *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Stock  *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Price  *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Weight *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	SKU    *string  `json:"sku,omitempty" validate:"omitempty,max=64"`
}

func (in UpdateOptionInput) apply(o *domain.Option) {
	if in.Name != nil {
		o.Name = *in.Name
	}
	if in.Stock != nil {
		o.Stock = *in.Stock
	}
	if in.Price != nil {
		o.Price = in.Price
	}
	if in.Weight != nil {
		o.Weight = *in.Weight
	}
	if in.SKU != nil {
		o.SKU = *in.SKU
	}
}

// Service handles variant and option business logic on the product aggregate
type Service struct {
	repo      domain.ProductRepository
	cache     ProductCache
	publisher EventPublisher
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewService creates a new variant service
func NewService(
	repo domain.ProductRepository,
	cache ProductCache,
	publisher EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		validate:  pkgvalidator.Get(),
		logger:    log,
	}
}

// Get retrieves a single variant with its options. The product is resolved
// first, so a missing product reports as such rather than a missing variant.
func (s *Service) Get(ctx context.Context, productID, variantID uuid.UUID) (*domain.Variant, error) {
	product, err := s.getProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	variant, err := product.Variant(variantID)
	if err != nil {
		s.logger.Debugf("Variant %s not found on product %s", variantID, productID)
		return nil, err
	}

	return variant, nil
}

// Add appends a new variant to the product, assigning fresh identifiers to
// the variant and any supplied options.
func (s *Service) Add(ctx context.Context, productID uuid.UUID, in AddVariantInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Variant validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	variant := domain.Variant{
		ID:      uuid.New(),
		Name:    in.Name,
		Options: []domain.Option{},
	}
	for _, opt := range in.Options {
		variant.AddOption(opt.toDomain())
	}

	product, err := s.mutate(ctx, productID, domain.EventVariantAdded, func(p *domain.Product) error {
		p.AddVariant(variant)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"variant_id": variant.ID,
		"name":       variant.Name,
	}).Info("Variant added successfully")

	return product, nil
}

// Update applies a partial update to the named variant's scalar fields
func (s *Service) Update(ctx context.Context, productID, variantID uuid.UUID, in UpdateVariantInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Variant validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	product, err := s.mutate(ctx, productID, domain.EventVariantUpdated, func(p *domain.Product) error {
		variant, err := p.Variant(variantID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			variant.Name = *in.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
	}).Info("Variant updated successfully")

	return product, nil
}

// Remove deletes the variant and cascades removal of its options
func (s *Service) Remove(ctx context.Context, productID, variantID uuid.UUID) (*domain.Product, error) {
	product, err := s.mutate(ctx, productID, domain.EventVariantRemoved, func(p *domain.Product) error {
		return p.RemoveVariant(variantID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
	}).Info("Variant removed successfully")

	return product, nil
}

// AddOption appends a new option to the named variant
func (s *Service) AddOption(ctx context.Context, productID, variantID uuid.UUID, in OptionInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Option validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	option := in.toDomain()

	product, err := s.mutate(ctx, productID, domain.EventOptionAdded, func(p *domain.Product) error {
		variant, err := p.Variant(variantID)
		if err != nil {
			return err
		}
		variant.AddOption(option)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
		"option_id":  option.ID,
		"sku":        option.SKU,
	}).Info("Option added successfully")

	return product, nil
}

// UpdateOption applies a partial update to the named option
func (s *Service) UpdateOption(ctx context.Context, productID, variantID, optionID uuid.UUID, in UpdateOptionInput) (*domain.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		s.logger.Error("Option validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	product, err := s.mutate(ctx, productID, domain.EventOptionUpdated, func(p *domain.Product) error {
		variant, err := p.Variant(variantID)
		if err != nil {
			return err
		}
		option, err := variant.Option(optionID)
		if err != nil {
			return err
		}
		in.apply(option)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
		"option_id":  optionID,
	}).Info("Option updated successfully")

	return product, nil
}

// RemoveOption deletes the named option
func (s *Service) RemoveOption(ctx context.Context, productID, variantID, optionID uuid.UUID) (*domain.Product, error) {
	product, err := s.mutate(ctx, productID, domain.EventOptionRemoved, func(p *domain.Product) error {
		variant, err := p.Variant(variantID)
		if err != nil {
			return err
		}
		return variant.RemoveOption(optionID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"product_id": productID,
		"variant_id": variantID,
		"option_id":  optionID,
	}).Info("Option removed successfully")

	return product, nil
}

// getProduct resolves the parent product, mapping the repository's generic
// not-found onto the product-level error.
func (s *Service) getProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debugf("Product not found: %s", productID)
			return nil, domain.ErrProductNotFound
		}
		s.logger.Error("Failed to get product", err)
		return nil, err
	}
	return product, nil
}

// mutate runs fn inside a read-modify-write loop over the product aggregate.
// The conditional write retries on version conflicts; fn must be free of
// side effects outside the aggregate so it can run more than once.
func (s *Service) mutate(ctx context.Context, productID uuid.UUID, eventType string, fn func(p *domain.Product) error) (*domain.Product, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		product, err := s.getProduct(ctx, productID)
		if err != nil {
			return nil, err
		}

		if err := fn(product); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, product)
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Debugf("Version conflict updating product %s, retrying", productID)
			continue
		}
		if err != nil {
			s.logger.Error("Failed to update product aggregate", err)
			return nil, err
		}

		if err := s.cache.InvalidateAllProductCache(ctx, productID); err != nil {
			s.logger.Warnf("Failed to invalidate cache for product %s: %v", productID, err)
		}

		s.publishEvent(ctx, eventType, product)

		return product, nil
	}

	s.logger.Warnf("Giving up on product %s mutation after %d version conflicts", productID, maxUpdateRetries)
	return nil, domain.ErrConflict
}

// publishEvent publishes a catalog event (non-blocking)
func (s *Service) publishEvent(ctx context.Context, eventType string, product *domain.Product) {
	event := domain.CatalogEvent{
		EventType: eventType,
		Timestamp: time.Now(),
		ProductID: product.ID,
		Product:   product,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Errorf(err, "Failed to marshal event for product %s", product.ID)
		return
	}

	// Publish in background to avoid blocking
	go func() {
		if err := s.publisher.Publish(context.Background(), catalogSubject, data); err != nil {
			s.logger.Errorf(err, "Failed to publish event for product %s", product.ID)
		}
	}()
}
