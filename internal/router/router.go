package router

import (
	"net/http"

	"orderdesk/internal/handler"
	"orderdesk/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Request ID -> Recovery -> Logging -> CORS -> APIKeyAuth -> Actor
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Actor(logger))

		r.Get("/products", productHandler.GetAll)
		r.Get("/products/{id}", productHandler.GetByID)

		r.Route("/orders/{id}", func(r chi.Router) {
			r.Get("/", orderHandler.GetByID)
			r.Post("/status", orderHandler.UpdateStatus)
			r.Patch("/items/{itemId}", orderHandler.UpdateItem)
			r.Post("/refunds", orderHandler.Refund)
			r.Post("/refunds/quote", orderHandler.QuoteRefund)
		})
	})

	return r
}
