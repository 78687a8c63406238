package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for one service process. Each service
// gets its own registry so /metrics never mixes processes.
type Metrics struct {
	// MessagesTotal counts envelopes by agent, schema and direction
	// (inbound, outbound).
	MessagesTotal *prometheus.CounterVec

	// HandlerDuration observes message handler execution time.
	HandlerDuration *prometheus.HistogramVec

	// HandlerErrors counts handler invocations that returned an error.
	HandlerErrors *prometheus.CounterVec

	// WorkflowsCompleted counts refund workflows that reached Done.
	WorkflowsCompleted prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collection on a private registry, labeled
// with the owning service name.
func NewMetrics(service string) *Metrics {
	registry := prometheus.NewRegistry()
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)

	return &Metrics{
		MessagesTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositflow_agent_messages_total",
				Help: "Total number of agent messages",
			},
			[]string{"agent", "schema", "direction"},
		),
		HandlerDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "depositflow_agent_handler_duration_seconds",
				Help:    "Message handler duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent", "schema"},
		),
		HandlerErrors: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "depositflow_agent_handler_errors_total",
				Help: "Total number of handler errors",
			},
			[]string{"agent", "schema"},
		),
		WorkflowsCompleted: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "depositflow_workflows_completed_total",
				Help: "Total number of refund workflows that reached Done",
			},
		),
		registry: registry,
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHandler records one handler invocation.
func (m *Metrics) ObserveHandler(agent, schema string, start time.Time, err error) {
	m.HandlerDuration.WithLabelValues(agent, schema).Observe(time.Since(start).Seconds())
	if err != nil {
		m.HandlerErrors.WithLabelValues(agent, schema).Inc()
	}
}

// Handler returns an http.Handler serving this registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ListenAndServe exposes /metrics on addr. It blocks; run it on its own
// goroutine.
func (m *Metrics) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
