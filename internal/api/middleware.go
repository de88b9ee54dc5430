package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zerokey/internal/auth"
	"zerokey/observability"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status code
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.responseSize += size
	return size, err
}

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture status code and size
		wrapped := newResponseWriter(w)

		// Process the request
		next.ServeHTTP(wrapped, r)

		// Get the route pattern from chi
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = r.URL.Path
		}

		// Record metrics
		metrics := observability.GetMetrics()
		duration := time.Since(start)
		statusCode := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(r.Method, routePattern, statusCode, duration, wrapped.responseSize)
	})
}

// ownerContextKey is the context key carrying the authenticated owner id
type ownerContextKey struct{}

// OwnerFromContext returns the authenticated owner id, if any
func OwnerFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerContextKey{}).(uuid.UUID)
	return id, ok
}

// withOwner stores the authenticated owner id in the context. Exposed to
// handler tests via test helpers only.
func withOwner(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, id)
}

// AuthMiddleware verifies the bearer token and resolves the current owner.
// Requests without a valid token get a 401.
func AuthMiddleware(issuer *auth.TokenIssuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authz, "Bearer ")
			if !ok || token == "" {
				unauthenticated(w)
				return
			}

			ownerID, err := issuer.Verify(token)
			if err != nil {
				unauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), ownerID)))
		})
	}
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
