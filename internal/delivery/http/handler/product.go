package handler

import (
	"net/http"

	"github.com/gritworks/storefront/internal/delivery/http/request"
	"github.com/gritworks/storefront/internal/delivery/http/response"
	"github.com/gritworks/storefront/internal/pkg/logger"
	"github.com/gritworks/storefront/internal/usecase/product"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// Create handles POST /product
// @Summary Create a new product
// @Description Create a new product with name, category, subcategory and base price
// @Tags Products
// @Accept json
// @Produce json
// @Param product body product.CreateInput true "Product details"
// @Success 201 {object} domain.Product "Created product"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /product [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in product.CreateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Created(w, created)
}

// GetByID handles GET /products/{id}
// @Summary Get a product by ID
// @Description Get a product including its variants and options
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} domain.Product "Product"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// List handles GET /products
// @Summary List all products
// @Description Get a paginated list of products
// @Tags Products
// @Accept json
// @Produce json
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} map[string]interface{} "Paginated list of products"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)

	products, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Paginated(w, products, total, limit, offset)
}

// Update handles PUT /products/{id}
// @Summary Update a product
// @Description Apply a partial update to scalar product fields (variants are not touched)
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Param product body product.UpdateInput true "Fields to update"
// @Success 200 {object} domain.Product "Updated product"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 409 {object} map[string]string "Conflict - product was modified"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var in product.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, updated)
}

// Delete handles DELETE /products/{id}
// @Summary Delete a product
// @Description Delete a product, cascading removal of its variants and options
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Deleted(w, id)
}

// GetStockSummary handles GET /products/{id}/stock
// @Summary Get the stock summary for a product
// @Description Per-product inventory rollup maintained by the stock worker
// @Tags Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} domain.StockSummary "Stock summary"
// @Failure 400 {object} map[string]string "Invalid product ID"
// @Failure 404 {object} map[string]string "Product not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /products/{id}/stock [get]
func (h *ProductHandler) GetStockSummary(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	summary, err := h.service.GetStockSummary(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, summary)
}
