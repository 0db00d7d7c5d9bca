package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Products    *ProductHandler
	Orders      *OrderHandler
	Payments    *PaymentHandler
	Subscribers *SubscribeHandler
	UploadsDir  string
	Timeout     time.Duration
	Logger      *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(middleware.Compress(5))
	r.Use(CORSMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"success":   true,
				"message":   "API is healthy",
				"timestamp": time.Now().UTC(),
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.List)
			r.Post("/", cfg.Products.Create)
			r.Get("/{id}", cfg.Products.Get)
			r.Put("/{id}", cfg.Products.Update)
			r.Delete("/{id}", cfg.Products.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", cfg.Orders.List)
			r.Post("/", cfg.Orders.Create)
			r.Get("/{id}", cfg.Orders.Get)
			r.Put("/{id}/status", cfg.Orders.UpdateStatus)
		})

		r.Post("/payments/generate", cfg.Payments.Generate)
		r.Post("/payments/verify", cfg.Payments.Verify)
		r.Post("/subscribe", cfg.Subscribers.Subscribe)
	})

	if cfg.UploadsDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle("/uploads/*", fs)
	}

	return otelhttp.NewHandler(r, "storefront-api")
}
