//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gritworks/storefront/internal/config"
	"github.com/gritworks/storefront/internal/delivery/events"
	httpDelivery "github.com/gritworks/storefront/internal/delivery/http"
	"github.com/gritworks/storefront/internal/delivery/http/handler"
	"github.com/gritworks/storefront/internal/pkg/cache"
	"github.com/gritworks/storefront/internal/pkg/database"
	"github.com/gritworks/storefront/internal/pkg/logger"
	cacheRepo "github.com/gritworks/storefront/internal/repository/cache"
	"github.com/gritworks/storefront/internal/repository/postgres"
	"github.com/gritworks/storefront/internal/usecase/product"
	"github.com/gritworks/storefront/internal/usecase/variant"
)

func setupTestServer(t *testing.T) http.Handler {
	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)

	// Setup logger
	log := logger.New(cfg.Env)

	// Connect to database
	db, err := database.WaitForDB(cfg, 5, 2*time.Second)
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(db))

	// Connect to Redis
	redisClient, err := cache.WaitForRedis(cfg, 5, 2*time.Second)
	require.NoError(t, err)

	// Connect to NATS
	publisher, err := events.NewPublisher(cfg, log)
	require.NoError(t, err)
	require.NoError(t, publisher.EnsureStream())

	// Setup repositories
	productRepo := postgres.NewProductRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductTTL,
		cfg.Cache.StockSummaryTTL,
	)

	// Setup services
	productService := product.NewService(productRepo, redisCache, publisher, cfg.Worker.LowStockThreshold, log)
	variantService := variant.NewService(productRepo, redisCache, publisher, log)

	// Setup handlers
	productHandler := handler.NewProductHandler(productService, log)
	variantHandler := handler.NewVariantHandler(variantService, log)

	// Setup router
	router := httpDelivery.NewRouter(productHandler, variantHandler, cfg, log)
	return router.Setup()
}

func doJSON(t *testing.T, server http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != "" {
		reqBody = bytes.NewBufferString(body)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCatalogLifecycle(t *testing.T) {
	server := setupTestServer(t)

	// Create product
	w := doJSON(t, server, http.MethodPost, "/product", `{
		"name": "Soda Blaster Pro",
		"category": "Equipment",
		"subcategory": "Blasters",
		"price": 100,
		"description": "Portable soda blasting unit",
		"images": ["/images/soda-blaster.png"]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeBody(t, w)
	productID := created["id"].(string)
	assert.Equal(t, "Soda Blaster Pro", created["name"])
	assert.Equal(t, float64(100), created["price"])

	defer func() {
		doJSON(t, server, http.MethodDelete, "/products/"+productID, "")
	}()

	// Get product back, field for field
	w = doJSON(t, server, http.MethodGet, "/products/"+productID, "")
	require.Equal(t, http.StatusOK, w.Code)

	fetched := decodeBody(t, w)
	assert.Equal(t, productID, fetched["id"])
	assert.Equal(t, "Equipment", fetched["category"])
	assert.Equal(t, "Blasters", fetched["subcategory"])
	assert.Equal(t, "Portable soda blasting unit", fetched["description"])

	// Add a variant with one option priced above the base price
	w = doJSON(t, server, http.MethodPost, fmt.Sprintf("/products/%s/variants", productID), `{
		"name": "Tank Size",
		"options": [
			{"name": "40L", "stock": 4, "price": 120, "weight": 18000, "sku": "SB-40"}
		]
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	withVariant := decodeBody(t, w)
	variants := withVariant["variants"].([]interface{})
	require.Len(t, variants, 1)
	variantData := variants[0].(map[string]interface{})
	variantID := variantData["id"].(string)
	options := variantData["options"].([]interface{})
	require.Len(t, options, 1)
	optionID := options[0].(map[string]interface{})["id"].(string)

	// Read a single variant
	w = doJSON(t, server, http.MethodGet, fmt.Sprintf("/products/%s/variants/%s", productID, variantID), "")
	require.Equal(t, http.StatusOK, w.Code)
	singleVariant := decodeBody(t, w)
	assert.Equal(t, "Tank Size", singleVariant["name"])

	// Add a second option
	w = doJSON(t, server, http.MethodPost, fmt.Sprintf("/products/%s/variants/%s/options", productID, variantID), `{
		"name": "20L", "stock": 9, "weight": 12000, "sku": "SB-20"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Update the first option's stock down to zero
	w = doJSON(t, server, http.MethodPut,
		fmt.Sprintf("/products/%s/variants/%s/options/%s", productID, variantID, optionID),
		`{"stock": 0}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Stock summary reflects the aggregate
	w = doJSON(t, server, http.MethodGet, fmt.Sprintf("/products/%s/stock", productID), "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody(t, w)
	assert.Equal(t, float64(9), summary["total_stock"])
	assert.Equal(t, false, summary["out_of_stock"])

	// Remove the variant, cascading its options
	w = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/products/%s/variants/%s", productID, variantID), "")
	require.Equal(t, http.StatusOK, w.Code)
	afterRemove := decodeBody(t, w)
	assert.Empty(t, afterRemove["variants"])

	// Delete the product
	w = doJSON(t, server, http.MethodDelete, "/products/"+productID, "")
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decodeBody(t, w)
	assert.Equal(t, true, deleted["deleted"])

	// Deleted product reads as not found
	w = doJSON(t, server, http.MethodGet, "/products/"+productID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	notFound := decodeBody(t, w)
	assert.Equal(t, "Product not found", notFound["message"])
}

func TestProductValidation(t *testing.T) {
	server := setupTestServer(t)

	// Missing required fields
	w := doJSON(t, server, http.MethodPost, "/product", `{"name": "Incomplete"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Negative price
	w = doJSON(t, server, http.MethodPost, "/product", `{
		"name": "Bad Price",
		"category": "Equipment",
		"subcategory": "Blasters",
		"price": -5
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zero price is a valid free product
	w = doJSON(t, server, http.MethodPost, "/product", `{
		"name": "Sample Pack",
		"category": "Consumables",
		"subcategory": "Samples",
		"price": 0
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	doJSON(t, server, http.MethodDelete, "/products/"+created["id"].(string), "")
}

func TestListProducts(t *testing.T) {
	server := setupTestServer(t)

	w := doJSON(t, server, http.MethodPost, "/product", `{
		"name": "List Fixture",
		"category": "Equipment",
		"subcategory": "Blasters",
		"price": 10
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	defer doJSON(t, server, http.MethodDelete, "/products/"+created["id"].(string), "")

	w = doJSON(t, server, http.MethodGet, "/products?limit=10&offset=0", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	pagination := resp["pagination"].(map[string]interface{})
	assert.GreaterOrEqual(t, pagination["total"].(float64), float64(1))
	assert.NotEmpty(t, resp["data"])
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)

	assert.Equal(t, "healthy", resp["status"])
}
