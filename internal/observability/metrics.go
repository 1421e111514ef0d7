package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors for the HTTP surface and the ticket
// count cache. Each Metrics instance carries its own registry so tests can
// build isolated instances without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpErrors   *prometheus.CounterVec
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
}

// NewMetrics initializes and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "support_desk",
				Name:      "http_requests_total",
				Help:      "HTTP requests by path, method and status.",
			},
			[]string{"path", "method", "status"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "support_desk",
				Name:      "http_errors_total",
				Help:      "Request errors by path, method and error code.",
			},
			[]string{"path", "method", "code"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "support_desk",
			Name:      "ticket_count_cache_hits_total",
			Help:      "Ticket count cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "support_desk",
			Name:      "ticket_count_cache_misses_total",
			Help:      "Ticket count cache misses.",
		}),
	}
	m.registry.MustRegister(m.httpRequests, m.httpErrors, m.cacheHits, m.cacheMisses)
	return m
}

// RecordRequest increments the request counter.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(path, method, code).Inc()
}

// RecordCacheHit increments the cache hit counter.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
