package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gritworks/storefront/internal/domain"
	"github.com/gritworks/storefront/internal/pkg/logger"
	"github.com/gritworks/storefront/internal/usecase/variant"
)

func setupVariantHandler() (*VariantHandler, *MockProductRepository, *MockProductCache) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	mockPublisher := new(MockEventPublisher)
	mockPublisher.On("Publish", mock.Anything, "catalog.events", mock.Anything).Return(nil).Maybe()

	log := logger.New("test")
	service := variant.NewService(mockRepo, mockCache, mockPublisher, log)
	return NewVariantHandler(service, log), mockRepo, mockCache
}

// catalogProduct builds a stored aggregate with one variant and one option
func catalogProduct(productID, variantID, optionID uuid.UUID) *domain.Product {
	return &domain.Product{
		ID:          productID,
		Name:        "Sandblast Cabinet",
		Category:    "Workshop",
		Subcategory: "Surface Prep",
		Price:       100,
		Version:     1,
		Variants: domain.VariantList{
			{
				ID:   variantID,
				Name: "Tank Size",
				Options: []domain.Option{
					{ID: optionID, Name: "20L", Stock: 3, Weight: 5000, SKU: "SB-20"},
				},
			},
		},
	}
}

func withVariantParams(req *http.Request, productID, variantID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productID", productID)
	rctx.URLParams.Add("variantID", variantID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withOptionParams(req *http.Request, productID, variantID, optionID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productID", productID)
	rctx.URLParams.Add("variantID", variantID)
	rctx.URLParams.Add("optionID", optionID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestVariantHandler_Add_Success(t *testing.T) {
	h, mockRepo, mockCache := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	requestBody := variant.AddVariantInput{
		Name: "Hose Length",
		Options: []variant.OptionInput{
			{Name: "5m", Stock: 8, Weight: 1200, SKU: "SB-H5"},
		},
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "productID", productID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return len(p.Variants) == 2 && p.Variants[1].Name == "Hose Length"
	})).Return(nil).Once()
	mockCache.On("InvalidateAllProductCache", mock.Anything, productID).Return(nil).Once()

	h.Add(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)

	body := decodeJSONBody(t, w)
	variants := body["variants"].([]any)
	assert.Len(t, variants, 2)
}

func TestVariantHandler_Add_InvalidProductID(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	req := httptest.NewRequest(http.MethodPost, "/products/invalid-uuid/variants", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "productID", "invalid-uuid")
	w := httptest.NewRecorder()

	h.Add(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Invalid product ID", body["message"])
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestVariantHandler_Add_InvalidJSON(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "productID", productID.String())
	w := httptest.NewRecorder()

	h.Add(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Invalid request body", body["message"])
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestVariantHandler_Add_MissingName(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()

	requestBody := variant.AddVariantInput{Name: ""}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "productID", productID.String())
	w := httptest.NewRecorder()

	h.Add(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Invalid input", body["message"])
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestVariantHandler_Add_ProductNotFound(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()

	requestBody := variant.AddVariantInput{Name: "Hose Length"}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withURLParam(req, "productID", productID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(nil, domain.ErrNotFound).Once()

	h.Add(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Product not found", body["message"])
	mockRepo.AssertExpectations(t)
}

func TestVariantHandler_Get_Success(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/variants/"+variantID.String(), nil)
	req = withVariantParams(req, productID.String(), variantID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()

	h.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)

	body := decodeJSONBody(t, w)
	assert.Equal(t, "Tank Size", body["name"])
	assert.Len(t, body["options"].([]any), 1)
}

func TestVariantHandler_Get_InvalidVariantID(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/variants/invalid-uuid", nil)
	req = withVariantParams(req, productID.String(), "invalid-uuid")
	w := httptest.NewRecorder()

	h.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Invalid variant ID", body["message"])
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestVariantHandler_Get_VariantNotFound(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()
	unknownVariant := uuid.New()
	stored := catalogProduct(productID, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/variants/"+unknownVariant.String(), nil)
	req = withVariantParams(req, productID.String(), unknownVariant.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()

	h.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Variant not found", body["message"])
	mockRepo.AssertExpectations(t)
}

func TestVariantHandler_Update_Success(t *testing.T) {
	h, mockRepo, mockCache := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	requestBody := variant.UpdateVariantInput{Name: strPtr("Hopper Size")}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/variants/"+variantID.String(), bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withVariantParams(req, productID.String(), variantID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Variants[0].Name == "Hopper Size"
	})).Return(nil).Once()
	mockCache.On("InvalidateAllProductCache", mock.Anything, productID).Return(nil).Once()

	h.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestVariantHandler_Update_Conflict(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	requestBody := variant.UpdateVariantInput{Name: strPtr("Hopper Size")}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/variants/"+variantID.String(), bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withVariantParams(req, productID.String(), variantID.String())
	w := httptest.NewRecorder()

	// Every retry loses the version race
	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil)
	mockRepo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	h.Update(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Conflict - product was modified by another request", body["message"])
	mockRepo.AssertExpectations(t)
}

func TestVariantHandler_Remove_Success(t *testing.T) {
	h, mockRepo, mockCache := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+productID.String()+"/variants/"+variantID.String(), nil)
	req = withVariantParams(req, productID.String(), variantID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return len(p.Variants) == 0
	})).Return(nil).Once()
	mockCache.On("InvalidateAllProductCache", mock.Anything, productID).Return(nil).Once()

	h.Remove(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)

	body := decodeJSONBody(t, w)
	assert.Len(t, body["variants"].([]any), 0)
}

func TestVariantHandler_Remove_VariantNotFound(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()
	unknownVariant := uuid.New()
	stored := catalogProduct(productID, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/products/"+productID.String()+"/variants/"+unknownVariant.String(), nil)
	req = withVariantParams(req, productID.String(), unknownVariant.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()

	h.Remove(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Variant not found", body["message"])
	mockRepo.AssertNotCalled(t, "Update")
}

func TestVariantHandler_AddOption_Success(t *testing.T) {
	h, mockRepo, mockCache := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	requestBody := variant.OptionInput{
		Name:   "40L",
		Stock:  14,
		Price:  floatPtr(120),
		Weight: 9000,
		SKU:    "SB-40",
	}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withVariantParams(req, productID.String(), variantID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		options := p.Variants[0].Options
		return len(options) == 2 && options[1].SKU == "SB-40"
	})).Return(nil).Once()
	mockCache.On("InvalidateAllProductCache", mock.Anything, productID).Return(nil).Once()

	h.AddOption(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestVariantHandler_AddOption_NegativeStock(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID, variantID := uuid.New(), uuid.New()

	requestBody := variant.OptionInput{Name: "40L", Stock: -1}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withVariantParams(req, productID.String(), variantID.String())
	w := httptest.NewRecorder()

	h.AddOption(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Invalid input", body["message"])
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestVariantHandler_AddOption_VariantNotFound(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID := uuid.New()
	unknownVariant := uuid.New()
	stored := catalogProduct(productID, uuid.New(), uuid.New())

	requestBody := variant.OptionInput{Name: "40L", Stock: 14}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPost, "/products/"+productID.String()+"/variants/"+unknownVariant.String()+"/options", bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withVariantParams(req, productID.String(), unknownVariant.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()

	h.AddOption(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Variant not found", body["message"])
	mockRepo.AssertNotCalled(t, "Update")
}

func TestVariantHandler_UpdateOption_Success(t *testing.T) {
	h, mockRepo, mockCache := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	stock := 0
	requestBody := variant.UpdateOptionInput{Stock: &stock}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options/"+optionID.String(), bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withOptionParams(req, productID.String(), variantID.String(), optionID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Variants[0].Options[0].Stock == 0
	})).Return(nil).Once()
	mockCache.On("InvalidateAllProductCache", mock.Anything, productID).Return(nil).Once()

	h.UpdateOption(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestVariantHandler_UpdateOption_InvalidOptionID(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID, variantID := uuid.New(), uuid.New()

	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options/invalid-uuid", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	req = withOptionParams(req, productID.String(), variantID.String(), "invalid-uuid")
	w := httptest.NewRecorder()

	h.UpdateOption(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Invalid option ID", body["message"])
	mockRepo.AssertNotCalled(t, "GetByID")
}

func TestVariantHandler_UpdateOption_OptionNotFound(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID, variantID := uuid.New(), uuid.New()
	unknownOption := uuid.New()
	stored := catalogProduct(productID, variantID, uuid.New())

	requestBody := variant.UpdateOptionInput{SKU: strPtr("SB-20-B")}
	bodyBytes, _ := json.Marshal(requestBody)

	req := httptest.NewRequest(http.MethodPut, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options/"+unknownOption.String(), bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req = withOptionParams(req, productID.String(), variantID.String(), unknownOption.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()

	h.UpdateOption(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Option not found", body["message"])
	mockRepo.AssertNotCalled(t, "Update")
}

func TestVariantHandler_RemoveOption_Success(t *testing.T) {
	h, mockRepo, mockCache := setupVariantHandler()

	productID, variantID, optionID := uuid.New(), uuid.New(), uuid.New()
	stored := catalogProduct(productID, variantID, optionID)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options/"+optionID.String(), nil)
	req = withOptionParams(req, productID.String(), variantID.String(), optionID.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return len(p.Variants[0].Options) == 0
	})).Return(nil).Once()
	mockCache.On("InvalidateAllProductCache", mock.Anything, productID).Return(nil).Once()

	h.RemoveOption(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestVariantHandler_RemoveOption_OptionNotFound(t *testing.T) {
	h, mockRepo, _ := setupVariantHandler()

	productID, variantID := uuid.New(), uuid.New()
	unknownOption := uuid.New()
	stored := catalogProduct(productID, variantID, uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/products/"+productID.String()+"/variants/"+variantID.String()+"/options/"+unknownOption.String(), nil)
	req = withOptionParams(req, productID.String(), variantID.String(), unknownOption.String())
	w := httptest.NewRecorder()

	mockRepo.On("GetByID", mock.Anything, productID).Return(stored, nil).Once()

	h.RemoveOption(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeJSONBody(t, w)
	assert.Equal(t, "Option not found", body["message"])
	mockRepo.AssertNotCalled(t, "Update")
}
