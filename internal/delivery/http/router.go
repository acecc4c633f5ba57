package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/gritworks/storefront/internal/config"
	"github.com/gritworks/storefront/internal/delivery/http/handler"
	"github.com/gritworks/storefront/internal/delivery/http/middleware"
	"github.com/gritworks/storefront/internal/delivery/http/response"
	"github.com/gritworks/storefront/internal/pkg/logger"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	productHandler *handler.ProductHandler
	variantHandler *handler.VariantHandler
	logger         *logger.Logger
	cfg            *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	productHandler *handler.ProductHandler,
	variantHandler *handler.VariantHandler,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		productHandler: productHandler,
		variantHandler: variantHandler,
		logger:         log,
		cfg:            cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// The admin form layer posts new products to the singular path.
	r.Post("/product", rt.productHandler.Create)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", rt.productHandler.List)
		r.Get("/{id}", rt.productHandler.GetByID)
		r.Put("/{id}", rt.productHandler.Update)
		r.Delete("/{id}", rt.productHandler.Delete)
		r.Get("/{id}/stock", rt.productHandler.GetStockSummary)

		r.Route("/{productID}/variants", func(r chi.Router) {
			r.Post("/", rt.variantHandler.Add)
			r.Get("/{variantID}", rt.variantHandler.Get)
			r.Put("/{variantID}", rt.variantHandler.Update)
			r.Delete("/{variantID}", rt.variantHandler.Remove)

			r.Route("/{variantID}/options", func(r chi.Router) {
				r.Post("/", rt.variantHandler.AddOption)
				r.Put("/{optionID}", rt.variantHandler.UpdateOption)
				r.Delete("/{optionID}", rt.variantHandler.RemoveOption)
			})
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
