package mockapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "mockapi"

// NewRouter creates a chi router with every storefront API route registered
// under /api.
func NewRouter(h *Handler, healthHandler *health.Handler, cors middleware.CORSConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cors))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)

		r.Get("/products", h.ListProducts)
		r.Post("/products/seed", h.SeedProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.tokens.Validate))

			r.Get("/cart", h.GetCart)
			r.Post("/cart/add", h.AddItem)
			r.Put("/cart/update", h.UpdateItem)
			r.Delete("/cart/clear", h.ClearCart)
			r.Delete("/cart/{productId}", h.RemoveItem)

			r.Get("/payment/methods", h.PaymentMethods)
			r.Post("/payment/process", h.ProcessPayment)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.Put("/profile/password", h.ChangePassword)
		})
	})

	return r
}
