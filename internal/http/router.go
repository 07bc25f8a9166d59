package http

import (
	"net/http"
	"time"

	"github.com/anneth/shop/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Carts     *CartHandler
	Checkout  *CheckoutHandler
	Orders    *OrderHandler
	Addresses *AddressHandler
	Webhooks  *WebhookHandler

	JWTSecret          []byte
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	Metrics        *metrics.ServerMetrics
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	auth := AuthMiddleware(cfg.JWTSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Use(auth)

			r.Get("/cart", cfg.Carts.GetCart)
			r.Post("/create-cart", cfg.Carts.CreateCart)
			r.Post("/add-cart", cfg.Carts.AddToCart)
			r.Put("/update-cart", cfg.Carts.UpdateCart)
			r.Delete("/empty-cart", cfg.Carts.EmptyCart)

			r.Post("/address", cfg.Addresses.CreateAddress)
			r.Get("/address", cfg.Addresses.ListAddresses)
			r.Delete("/address/{addressID}", cfg.Addresses.DeleteAddress)
		})

		r.Route("/order", func(r chi.Router) {
			// signed by the payment provider, not by a user
			r.Post("/webhooks/stripe", cfg.Webhooks.Stripe)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/", cfg.Orders.ListOrders)
				r.Post("/checkout-session", cfg.Checkout.CreateCheckoutSession)
				r.Get("/{orderID}", cfg.Orders.GetOrder)
			})
		})
	})

	return otelhttp.NewHandler(r, "shop-api")
}
