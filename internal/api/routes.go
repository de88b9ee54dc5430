package api

import (
	"net/http"
	"time"

	"zerokey/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second))
	r.Use(CORSMiddleware(cfg.HTTP.CORSAllowedOrigins))
	r.Use(MetricsMiddleware)

	// Health check
	r.Get("/health", h.HandleHealth)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	// Owner auth
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.Get("/{provider}/login", h.HandleOAuthLogin)
		r.Get("/{provider}/callback", h.HandleOAuthCallback)
	})

	authenticated := AuthMiddleware(h.app.Auth().Issuer())

	// Vault
	r.Route("/keys", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/", h.HandleCreateKey)
		r.Get("/", h.HandleListKeys)
		r.Delete("/{id}", h.HandleDeleteKey)
	})

	// Proxy dispatch. The unified route is anonymous; the unified secret
	// itself is the credential.
	r.Route("/proxy", func(r chi.Router) {
		r.Post("/u/{provider}/{name}", h.HandleProxyUnified)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/{provider}", h.HandleProxyDefault)
			r.Post("/{provider}/{name}", h.HandleProxyNamed)
		})
	})

	// Usage ledger
	r.Route("/usage", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", h.HandleGetUsage)
		r.Get("/{keyId}", h.HandleGetUsageByKey)
	})

	return r
}

// CORSMiddleware returns CORS middleware with the specified allowed origins
func CORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
