// Package metrics exposes the engine's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the engine instruments on a private registry so
// tests and embedders never collide with the default one.
type Metrics struct {
	registry *prometheus.Registry

	// RunningAgents tracks the size of the scheduler's running set.
	RunningAgents prometheus.Gauge

	// FeatureCompletions counts finished runs by result
	// (verified, waiting_approval, stopped, error).
	FeatureCompletions *prometheus.CounterVec

	// ProviderMessages counts streamed messages by kind.
	ProviderMessages *prometheus.CounterVec

	// TranscriptFlushes counts forced transcript flushes.
	TranscriptFlushes prometheus.Counter
}

// New creates the instruments and registers them.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RunningAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gaffer_running_agents",
			Help: "Number of feature executions currently running.",
		}),
		FeatureCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaffer_feature_completions_total",
			Help: "Completed feature runs by result.",
		}, []string{"result"}),
		ProviderMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaffer_provider_messages_total",
			Help: "Provider stream messages by kind.",
		}, []string{"kind"}),
		TranscriptFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaffer_transcript_flushes_total",
			Help: "Forced transcript flushes at run boundaries.",
		}),
	}

	registry.MustRegister(m.RunningAgents, m.FeatureCompletions, m.ProviderMessages, m.TranscriptFlushes)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
