package handler

import (
	"errors"
	"net/http"

	"github.com/gritworks/storefront/internal/delivery/http/response"
	"github.com/gritworks/storefront/internal/domain"
	"github.com/gritworks/storefront/internal/pkg/logger"
)

// handleError maps service errors onto HTTP responses. Lookups resolve
// parent-then-child, so the most specific not-found level is checked first.
func handleError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrOptionNotFound):
		response.Error(w, http.StatusNotFound, "Option not found")
	case errors.Is(err, domain.ErrVariantNotFound):
		response.Error(w, http.StatusNotFound, "Variant not found")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "Conflict - product was modified by another request")
	default:
		log.Error("Internal error in handler", err)
		response.Error(w, http.StatusInternalServerError, err.Error())
	}
}
