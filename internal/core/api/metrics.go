package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the mapping-rules service.
// A nil *Metrics disables recording.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec   // By method and gRPC code
	requestDuration *prometheus.HistogramVec // By method
	diagnostics     *prometheus.CounterVec   // By error code
	pipelineEntries prometheus.Histogram
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vesmapper",
			Subsystem: "rules",
			Name:      "requests_total",
			Help:      "Total number of mapping-rules requests",
		}, []string{"method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vesmapper",
			Subsystem: "rules",
			Name:      "request_duration_seconds",
			Help:      "Mapping-rules request duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method"}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vesmapper",
			Subsystem: "rules",
			Name:      "diagnostics_total",
			Help:      "Total number of validation diagnostics reported",
		}, []string{"error_code"}),
		pipelineEntries: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vesmapper",
			Subsystem: "rules",
			Name:      "pipeline_entries",
			Help:      "Number of processing entries per translated pipeline",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
		}),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(method, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) recordDiagnostics(codes []string) {
	if m == nil {
		return
	}
	for _, c := range codes {
		m.diagnostics.WithLabelValues(c).Inc()
	}
}

func (m *Metrics) recordPipeline(entries int) {
	if m == nil {
		return
	}
	m.pipelineEntries.Observe(float64(entries))
}
