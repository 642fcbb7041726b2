// Package metrics holds the Prometheus collectors shared by the codec
// messenger, the archive and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for mxgram
type Metrics struct {
	registry *prometheus.Registry

	// Codec metrics
	codecOperationsTotal   *prometheus.CounterVec
	codecOperationDuration *prometheus.HistogramVec
	gramSizeBytes          *prometheus.HistogramVec

	// Datagram metrics
	datagramsSentTotal     prometheus.Counter
	datagramsReceivedTotal prometheus.Counter
	datagramsDroppedTotal  *prometheus.CounterVec

	// Archive metrics
	archiveWritesTotal *prometheus.CounterVec

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec
	authRequestsTotal    *prometheus.CounterVec
}

// New creates the metrics and registers them on reg. A nil reg gets a
// fresh registry, so several instances can live in one process.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		codecOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mxgram_codec_operations_total",
				Help: "Total number of gram encode and decode operations",
			},
			[]string{"operation", "kind", "status"},
		),

		codecOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mxgram_codec_operation_duration_seconds",
				Help:    "Gram encode and decode duration in seconds",
				Buckets: []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3},
			},
			[]string{"operation"},
		),

		gramSizeBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mxgram_gram_size_bytes",
				Help:    "Size of encoded and decoded grams in bytes",
				Buckets: prometheus.ExponentialBuckets(16, 2, 12),
			},
			[]string{"operation"},
		),

		datagramsSentTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mxgram_datagrams_sent_total",
				Help: "Total number of datagrams sent",
			},
		),

		datagramsReceivedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mxgram_datagrams_received_total",
				Help: "Total number of datagrams received and decoded",
			},
		),

		datagramsDroppedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mxgram_datagrams_dropped_total",
				Help: "Total number of received datagrams that could not be decoded",
			},
			[]string{"reason"},
		),

		archiveWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mxgram_archive_writes_total",
				Help: "Total number of grams written to the archive",
			},
			[]string{"status"},
		),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mxgram_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mxgram_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mxgram_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mxgram_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCodecOperation records one encode or decode of a gram of size bytes
func (m *Metrics) RecordCodecOperation(operation, kind string, size int, err error, duration time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}

	m.codecOperationsTotal.WithLabelValues(operation, kind, status).Inc()
	m.codecOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil {
		m.gramSizeBytes.WithLabelValues(operation).Observe(float64(size))
	}
}

// RecordSent records a sent datagram
func (m *Metrics) RecordSent() {
	m.datagramsSentTotal.Inc()
}

// RecordReceived records a received and decoded datagram
func (m *Metrics) RecordReceived() {
	m.datagramsReceivedTotal.Inc()
}

// RecordDropped records a datagram discarded for reason
func (m *Metrics) RecordDropped(reason string) {
	m.datagramsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordArchiveWrite records a write to the archive
func (m *Metrics) RecordArchiveWrite(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.archiveWritesTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware counts the outcome of requests that present an
// API key to next.
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
