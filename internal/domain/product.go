package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is the aggregate root of the catalog. Variants and options live
// inside the product record and share its lifetime; there is no persistence
// unit below the product row.
type Product struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name" validate:"required,min=1,max=255"`
	Category    string         `json:"category" db:"category" validate:"required,min=1,max=100"`
	Subcategory string         `json:"subcategory" db:"subcategory" validate:"required,min=1,max=100"`
	Price       float64        `json:"price" db:"price" validate:"gte=0"`
	Description *string        `json:"description,omitempty" db:"description"`
	Images      pq.StringArray `json:"images" db:"images"`
	Variants    VariantList    `json:"variants" db:"variants" validate:"dive"`
	Version     int            `json:"version" db:"version"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Variant is a named axis of differentiation on a product (e.g. "Size").
// Its ID is unique within the owning product; insertion order is the
// display order.
type Variant struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name" validate:"required,min=1,max=100"`
	Options []Option  `json:"options" validate:"dive"`
}

// Option is one concrete choice within a variant. A non-nil Price overrides
// the product base price. Weight is in grams.
type Option struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name" validate:"required,min=1,max=100"`
	Stock  int       `json:"stock" validate:"gte=0"`
	Price  *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Weight float64   `json:"weight" validate:"gte=0"`
	SKU    string    `json:"sku" validate:"max=64"`
}

// VariantList is stored as a single JSONB column on the product row so that
// every aggregate write replaces the whole variant tree at once.
type VariantList []Variant

// Value implements driver.Valuer for JSONB storage.
func (vl VariantList) Value() (driver.Value, error) {
	if vl == nil {
		vl = VariantList{}
	}
	return json.Marshal(vl)
}

// Scan implements sql.Scanner for JSONB storage.
func (vl *VariantList) Scan(src interface{}) error {
	if src == nil {
		*vl = VariantList{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into VariantList", src)
	}

	return json.Unmarshal(data, vl)
}

// Variant returns the variant with the given ID.
func (p *Product) Variant(id uuid.UUID) (*Variant, error) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], nil
		}
	}
	return nil, ErrVariantNotFound
}

// AddVariant appends a variant, preserving insertion order.
func (p *Product) AddVariant(v Variant) {
	p.Variants = append(p.Variants, v)
}

// RemoveVariant deletes the variant with the given ID along with all of its
// options.
func (p *Product) RemoveVariant(id uuid.UUID) error {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
			return nil
		}
	}
	return ErrVariantNotFound
}

// Option returns the option with the given ID.
func (v *Variant) Option(id uuid.UUID) (*Option, error) {
	for i := range v.Options {
		if v.Options[i].ID == id {
			return &v.Options[i], nil
		}
	}
	return nil, ErrOptionNotFound
}

// AddOption appends an option, preserving insertion order.
func (v *Variant) AddOption(o Option) {
	v.Options = append(v.Options, o)
}

// RemoveOption deletes the option with the given ID.
func (v *Variant) RemoveOption(id uuid.UUID) error {
	for i := range v.Options {
		if v.Options[i].ID == id {
			v.Options = append(v.Options[:i], v.Options[i+1:]...)
			return nil
		}
	}
	return ErrOptionNotFound
}

// ProductRepository defines the interface for product aggregate data access
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID including its variants (excludes soft-deleted)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// List retrieves a paginated list of products (excludes soft-deleted)
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// Update rewrites the whole aggregate row; fails with ErrConflict when
	// the stored version no longer matches product.Version
	Update(ctx context.Context, product *Product) error

	// Delete soft-deletes a product, cascading over its variants and options
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of products (excludes soft-deleted)
	Count(ctx context.Context) (int, error)
}
