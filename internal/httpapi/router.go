// Package httpapi публикует витрину через REST (chi).
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// NewRouter собирает маршруты /api/....
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{productId}", h.GetProduct)
			r.Put("/{productId}/stock", h.UpdateStock)
			r.Post("/{productId}/restock", h.Restock)
		})

		r.Route("/carts/{visitorId}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.DiscardCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{productId}", h.UpdateItem)
			r.Delete("/items/{productId}", h.RemoveItem)
			r.Post("/clear", h.ClearCart)
			r.Post("/checkout", h.Checkout)
		})

		r.Get("/visitors/{visitorId}/orders", h.ListOrders)

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", h.GetOrder)
			r.Get("/timeline", h.Timeline)
			r.Post("/confirm", h.ConfirmOrder)
			r.Post("/ship", h.ShipOrder)
			r.Post("/deliver", h.DeliverOrder)
			r.Post("/cancel", h.CancelOrder)
		})
	})

	return r
}

// requestLogger пишет access-лог через logrus.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("http request")
		})
	}
}
