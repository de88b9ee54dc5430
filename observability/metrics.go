package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Dispatch metrics
	DispatchTotal       *prometheus.CounterVec
	DispatchDuration    *prometheus.HistogramVec
	DispatchErrorsTotal *prometheus.CounterVec
	DispatchTokens      *prometheus.CounterVec

	// Vault metrics
	CredentialsCreated *prometheus.CounterVec
	CredentialsDeleted prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryTotal    *prometheus.CounterVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Total number of proxy dispatches by provider and upstream status",
			},
			[]string{"provider", "status"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zerokey",
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "End-to-end duration of proxy dispatches in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"provider"},
		),
		DispatchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "dispatch",
				Name:      "errors_total",
				Help:      "Total number of dispatch errors by type",
			},
			[]string{"provider", "error_type"},
		),
		DispatchTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "dispatch",
				Name:      "tokens_total",
				Help:      "Total tokens reported by upstreams",
			},
			[]string{"provider", "direction"},
		),

		CredentialsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "vault",
				Name:      "credentials_created_total",
				Help:      "Total credentials stored, by provider",
			},
			[]string{"provider"},
		),
		CredentialsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "vault",
				Name:      "credentials_deleted_total",
				Help:      "Total credentials deleted",
			},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zerokey",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation", "table"},
		),
		DBQueryTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "db",
				Name:      "queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "Total number of database errors",
			},
			[]string{"operation", "table"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "zerokey",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zerokey",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "zerokey",
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576},
			},
			[]string{"method", "path"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordDispatch records one proxy dispatch with its upstream status
func (m *Metrics) RecordDispatch(provider, status string, duration time.Duration) {
	m.DispatchTotal.WithLabelValues(provider, status).Inc()
	m.DispatchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordDispatchError records a dispatch error by type
func (m *Metrics) RecordDispatchError(provider, errorType string) {
	m.DispatchErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordTokens records upstream-reported token counts
func (m *Metrics) RecordTokens(provider string, requestTokens, responseTokens int) {
	if requestTokens > 0 {
		m.DispatchTokens.WithLabelValues(provider, "request").Add(float64(requestTokens))
	}
	if responseTokens > 0 {
		m.DispatchTokens.WithLabelValues(provider, "response").Add(float64(responseTokens))
	}
}

// RecordCredentialCreated records a stored credential
func (m *Metrics) RecordCredentialCreated(provider string) {
	m.CredentialsCreated.WithLabelValues(provider).Inc()
}

// RecordCredentialDeleted records a deleted credential
func (m *Metrics) RecordCredentialDeleted() {
	m.CredentialsDeleted.Inc()
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration) {
	m.DBQueryTotal.WithLabelValues(operation, table).Inc()
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error
func (m *Metrics) RecordDBError(operation, table string) {
	m.DBErrorsTotal.WithLabelValues(operation, table).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveDispatch records the dispatch duration and status
func (t *Timer) ObserveDispatch(provider, status string) {
	t.metrics.RecordDispatch(provider, status, time.Since(t.start))
}

// ObserveDB records the database query duration
func (t *Timer) ObserveDB(operation, table string) {
	t.metrics.RecordDBQuery(operation, table, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
