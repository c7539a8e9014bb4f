package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	ChiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/v42069/kafka-payments/internal/api/middleware"
)

// NewProductsRouter serves the products producer API. POST /products is
// guarded by the Redis idempotency middleware so a client retry with the
// same Idempotency-Key does not publish a second event.
func NewProductsRouter(h *ProductHandlers, redisClient *redis.Client) http.Handler {
	r := newBaseRouter()

	r.With(middleware.Idempotency(redisClient)).Post("/products", h.CreateProduct)

	return r
}

// NewTransferRouter serves the transfer orchestrator API.
func NewTransferRouter(h *TransferHandlers, redisClient *redis.Client) http.Handler {
	r := newBaseRouter()

	r.With(middleware.Idempotency(redisClient)).Post("/transfers", h.CreateTransfer)

	return r
}

func newBaseRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(ChiMiddleware.Logger)
	r.Use(ChiMiddleware.Recoverer)
	r.Use(ChiMiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
