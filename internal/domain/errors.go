package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a conditional write loses the version race
	ErrConflict = errors.New("conflict occurred")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)

// Aggregate lookups resolve parent-then-child, and each level reports its
// own not-found error so a missing product is distinguishable from a
// missing variant or option. All three match errors.Is(err, ErrNotFound).
var (
	ErrProductNotFound = fmt.Errorf("product: %w", ErrNotFound)
	ErrVariantNotFound = fmt.Errorf("variant: %w", ErrNotFound)
	ErrOptionNotFound  = fmt.Errorf("option: %w", ErrNotFound)
)
