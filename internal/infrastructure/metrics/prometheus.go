// Package metrics provides the Prometheus implementation of ports.MetricsCollector.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/kin-core/internal/domain/ports"
)

const namespace = "kin"

// Collector records relationship engine and HTTP metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	// operations counts service operations.
	// Labels: operation, status (ok or an error code)
	operations *prometheus.CounterVec

	// operationLatency measures service operation latency in seconds.
	// Labels: operation
	operationLatency *prometheus.HistogramVec

	// retries counts automatic retries after contention.
	// Labels: operation
	retries *prometheus.CounterVec

	// httpRequests counts HTTP requests.
	// Labels: method, route, code
	httpRequests *prometheus.CounterVec

	// httpLatency measures HTTP request latency in seconds.
	// Labels: method, route
	httpLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector with a fresh registry that also exposes
// Go runtime and process metrics.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relationships",
			Name:      "operations_total",
			Help:      "Relationship engine operations by outcome",
		}, []string{"operation", "status"}),
		operationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relationships",
			Name:      "operation_duration_seconds",
			Help:      "Relationship engine operation latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relationships",
			Name:      "contention_retries_total",
			Help:      "Writes retried after a concurrent modification",
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordOperation records the completion of a service operation.
func (c *Collector) RecordOperation(_ context.Context, operation, status string, duration time.Duration) {
	c.operations.WithLabelValues(operation, status).Inc()
	c.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRetry records an automatic retry after contention.
func (c *Collector) RecordRetry(_ context.Context, operation string) {
	c.retries.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(method, route, code string, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, code).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

var _ ports.MetricsCollector = (*Collector)(nil)
