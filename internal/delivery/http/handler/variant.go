package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gritworks/storefront/internal/delivery/http/request"
	"github.com/gritworks/storefront/internal/delivery/http/response"
	"github.com/gritworks/storefront/internal/pkg/logger"
	"github.com/gritworks/storefront/internal/usecase/variant"
)

// VariantHandler handles HTTP requests for variants and options
type VariantHandler struct {
	service *variant.Service
	logger  *logger.Logger
}

// NewVariantHandler creates a new variant handler
func NewVariantHandler(service *variant.Service, log *logger.Logger) *VariantHandler {
	return &VariantHandler{
		service: service,
		logger:  log,
	}
}

func (h *VariantHandler) pathIDs(w http.ResponseWriter, r *http.Request) (productID, variantID uuid.UUID, ok bool) {
	productID, err := request.GetUUIDParam(r, "productID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return uuid.Nil, uuid.Nil, false
	}

	variantID, err = request.GetUUIDParam(r, "variantID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid variant ID")
		return uuid.Nil, uuid.Nil, false
	}

	return productID, variantID, true
}

// Add handles POST /products/{productID}/variants
// @Summary Add a variant to a product
// @Description Append a new variant (optionally with options) to the product
// @Tags Variants
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variant body variant.AddVariantInput true "Variant details"
// @Success 201 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants [post]
func (h *VariantHandler) Add(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetUUIDParam(r, "productID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var in variant.AddVariantInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Add(r.Context(), productID, in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Created(w, updated)
}

// Get handles GET /products/{productID}/variants/{variantID}
// @Summary Get a single variant
// @Description Get a variant with its options
// @Tags Variants
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variantID path string true "Variant ID (UUID)"
// @Success 200 {object} domain.Variant "Variant"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Product or variant not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants/{variantID} [get]
func (h *VariantHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	v, err := h.service.Get(r.Context(), productID, variantID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, v)
}

// Update handles PUT /products/{productID}/variants/{variantID}
// @Summary Update a variant
// @Description Apply a partial update to scalar variant fields (options are not touched)
// @Tags Variants
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variantID path string true "Variant ID (UUID)"
// @Param variant body variant.UpdateVariantInput true "Fields to update"
// @Success 200 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product or variant not found"
// @Failure 409 {object} map[string]string "Conflict - product was modified"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants/{variantID} [put]
func (h *VariantHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var in variant.UpdateVariantInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), productID, variantID, in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}

// Remove handles DELETE /products/{productID}/variants/{variantID}
// @Summary Remove a variant
// @Description Delete a variant, cascading removal of its options
// @Tags Variants
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variantID path string true "Variant ID (UUID)"
// @Success 200 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Product or variant not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants/{variantID} [delete]
func (h *VariantHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Remove(r.Context(), productID, variantID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}

// AddOption handles POST /products/{productID}/variants/{variantID}/options
// @Summary Add an option to a variant
// @Description Append a new option carrying stock, price override, weight and SKU
// @Tags Options
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variantID path string true "Variant ID (UUID)"
// @Param option body variant.OptionInput true "Option details"
// @Success 201 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product or variant not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants/{variantID}/options [post]
func (h *VariantHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var in variant.OptionInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.AddOption(r.Context(), productID, variantID, in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Created(w, updated)
}

// UpdateOption handles PUT /products/{productID}/variants/{variantID}/options/{optionID}
// @Summary Update an option
// @Description Apply a partial update to option fields; negative numerics refuse the mutation
// @Tags Options
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variantID path string true "Variant ID (UUID)"
// @Param optionID path string true "Option ID (UUID)"
// @Param option body variant.UpdateOptionInput true "Fields to update"
// @Success 200 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product, variant or option not found"
// @Failure 409 {object} map[string]string "Conflict - product was modified"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants/{variantID}/options/{optionID} [put]
func (h *VariantHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	optionID, err := request.GetUUIDParam(r, "optionID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid option ID")
		return
	}

	var in variant.UpdateOptionInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateOption(r.Context(), productID, variantID, optionID, in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}

// RemoveOption handles DELETE /products/{productID}/variants/{variantID}/options/{optionID}
// @Summary Remove an option
// @Tags Options
// @Accept json
// @Produce json
// @Param productID path string true "Product ID (UUID)"
// @Param variantID path string true "Variant ID (UUID)"
// @Param optionID path string true "Option ID (UUID)"
// @Success 200 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Product, variant or option not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{productID}/variants/{variantID}/options/{optionID} [delete]
func (h *VariantHandler) RemoveOption(w http.ResponseWriter, r *http.Request) {
	productID, variantID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	optionID, err := request.GetUUIDParam(r, "optionID")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid option ID")
		return
	}

	updated, err := h.service.RemoveOption(r.Context(), productID, variantID, optionID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}
