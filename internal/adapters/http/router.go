package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loopcart/ranking-service/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(logger *slog.Logger, handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/rankings", func(r chi.Router) {
			r.Get("/", handler.getRankings)
			r.Get("/products/{product_id}/rank", handler.getProductRank)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/product-liked", handler.recordProductLiked)
			r.Post("/product-unliked", handler.recordProductUnliked)
			r.Post("/product-viewed", handler.recordProductViewed)
			r.Post("/product-stock-depleted", handler.recordStockDepleted)
			r.Post("/order-created", handler.recordOrderCreated)
			r.Post("/order-paid", handler.recordOrderPaid)
		})
	})
	return r
}
