package domain

import (
	"time"

	"github.com/google/uuid"
)

// Catalog event types published on every aggregate mutation.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventVariantAdded   = "variant.added"
	EventVariantUpdated = "variant.updated"
	EventVariantRemoved = "variant.removed"
	EventOptionAdded    = "option.added"
	EventOptionUpdated  = "option.updated"
	EventOptionRemoved  = "option.removed"
)

// CatalogEvent is the payload published to the catalog events subject.
// Product is omitted for deletions.
type CatalogEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	ProductID uuid.UUID `json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}
