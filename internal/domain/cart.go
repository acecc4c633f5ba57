package domain

import "github.com/google/uuid"

// Defaults substituted by NormalizeCartLine for missing fields.
const (
	DefaultProductName = "Unknown Product"
	DefaultCategory    = "No Category"
	DefaultVariantName = "No Variant"
	DefaultOptionName  = "No Option"
	DefaultImagePath   = "/images/placeholder.png"
)

// CartLine is a flattened, display-ready projection of a
// (product, variant, option, quantity) tuple. It is transient: cart lines
// are never persisted by this service.
type CartLine struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	VariantName string    `json:"variant_name"`
	OptionName  string    `json:"option_name"`
	Image       string    `json:"image"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
}

// NewCartLine builds a normalized cart line from the aggregate pieces.
// Variant and option may be nil for products sold without differentiation.
// The option price, when present, overrides the product base price.
func NewCartLine(p *Product, v *Variant, o *Option, quantity int) CartLine {
	line := CartLine{Quantity: quantity}

	if p != nil {
		line.ProductID = p.ID
		line.ProductName = p.Name
		line.Category = p.Category
		line.UnitPrice = p.Price
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
	}
	if v != nil {
		line.VariantName = v.Name
	}
	if o != nil {
		line.OptionName = o.Name
		if o.Price != nil {
			line.UnitPrice = *o.Price
		}
	}

	return NormalizeCartLine(line)
}

// NormalizeCartLine substitutes defaults for missing fields and recomputes
// the line total. It is pure and idempotent: normalizing an already
// normalized line returns it unchanged.
func NormalizeCartLine(line CartLine) CartLine {
	if line.ProductName == "" {
		line.ProductName = DefaultProductName
	}
	if line.Category == "" {
		line.Category = DefaultCategory
	}
	if line.VariantName == "" {
		line.VariantName = DefaultVariantName
	}
	if line.OptionName == "" {
		line.OptionName = DefaultOptionName
	}
	if line.Image == "" {
		line.Image = DefaultImagePath
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	if line.UnitPrice < 0 {
		line.UnitPrice = 0
	}
	line.TotalPrice = line.UnitPrice * float64(line.Quantity)

	return line
}
