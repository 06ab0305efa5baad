// Package metrics exposes Prometheus collectors for the relay.
//
// A nil *Metrics is valid and records nothing, so components can take an
// optional collector set without nil checks at every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jeeves"

// Metrics groups all relay collectors.
type Metrics struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	decisions   *prometheus.CounterVec
	completions *prometheus.CounterVec
	latency     prometheus.Histogram
	chunks      *prometheus.CounterVec
	dispatchErr *prometheus.CounterVec
}

// New creates the collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound gateway events by kind (interaction, message, dropped).",
		}, []string{"kind"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_outcomes_total",
			Help:      "Response policy outcomes for ordinary messages.",
		}, []string{"outcome"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion calls by model and result.",
		}, []string{"model", "result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Completion call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatched_chunks_total",
			Help:      "Outbound calls sent by target kind.",
		}, []string{"target"}),
		dispatchErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_errors_total",
			Help:      "Outbound calls that failed or were not acknowledged.",
		}, []string{"target"}),
	}
	m.registry.MustRegister(m.events, m.decisions, m.completions, m.latency, m.chunks, m.dispatchErr)
	return m
}

// Registry returns the registry holding the relay collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Event counts an inbound event of the given kind.
func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

// Outcome counts a response policy outcome.
func (m *Metrics) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
}

// Completion records one completion call.
func (m *Metrics) Completion(model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.completions.WithLabelValues(model, result).Inc()
	m.latency.Observe(d.Seconds())
}

// Chunk counts one outbound call; err marks it as failed.
func (m *Metrics) Chunk(target string, err error) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(target).Inc()
	if err != nil {
		m.dispatchErr.WithLabelValues(target).Inc()
	}
}
