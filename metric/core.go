package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics for the topology registry
// and its change feed.
type Metrics struct {
	// Registry metrics
	ReloadsTotal         prometheus.Counter
	ReloadFailuresTotal  prometheus.Counter
	ComponentsConfigured *prometheus.GaugeVec

	// Event bus metrics
	EventsPublished   *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	SubscribersActive prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ReloadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vector",
				Subsystem: "topology",
				Name:      "reloads_total",
				Help:      "Total number of topology reloads applied",
			},
		),

		ReloadFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vector",
				Subsystem: "topology",
				Name:      "reload_failures_total",
				Help:      "Total number of topology reloads rejected by validation",
			},
		),

		ComponentsConfigured: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "vector",
				Subsystem: "topology",
				Name:      "components_configured",
				Help:      "Number of components in the current snapshot",
			},
			[]string{"kind"},
		),

		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vector",
				Subsystem: "events",
				Name:      "published_total",
				Help:      "Total number of change events published to the bus",
			},
			[]string{"op"},
		),

		EventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vector",
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Total number of change events dropped for lagging subscribers",
			},
		),

		SubscribersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vector",
				Subsystem: "events",
				Name:      "subscribers_active",
				Help:      "Number of active change event subscribers",
			},
		),
	}
}

// collectors returns every collector owned by the Metrics instance.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReloadsTotal,
		m.ReloadFailuresTotal,
		m.ComponentsConfigured,
		m.EventsPublished,
		m.EventsDropped,
		m.SubscribersActive,
	}
}
