// Package telemetry exposes live study counters over Prometheus: steps
// simulated, collisions, law activations, and lane changes. The registry is
// per-instance so parallel studies never share collectors.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/action"
	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/policy"
)

// #region metrics

// Metrics bundles the study's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	StepsTotal      prometheus.Counter
	CollisionsTotal prometheus.Counter
	LaneChanges     prometheus.Counter
	LawActivations  *prometheus.CounterVec
	RecoveredSteps  prometheus.Counter
}

// New builds and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_steps_total",
			Help: "Simulation steps completed.",
		}),
		CollisionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sim_collisions_total",
			Help: "Vehicles flagged as collided.",
		}),
		LaneChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "policy_lane_changes_total",
			Help: "Lane-change intents emitted by agents.",
		}),
		LawActivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_law_activations_total",
			Help: "Social law activations by law name.",
		}, []string{"law"}),
		RecoveredSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "policy_recovered_steps_total",
			Help: "Steps recovered from an unusable observation.",
		}),
	}
	m.registry.MustRegister(m.StepsTotal, m.CollisionsTotal, m.LaneChanges, m.LawActivations, m.RecoveredSteps)
	return m
}

// ObserveTrace records one agent decision.
func (m *Metrics) ObserveTrace(trace policy.StepTrace) {
	if trace.Recovered {
		m.RecoveredSteps.Inc()
	}
	if trace.Intent != action.IntentNone {
		m.LaneChanges.Inc()
	}
	for _, name := range trace.ActiveLaws {
		m.LawActivations.WithLabelValues(name).Inc()
	}
}

// Handler returns the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// #endregion metrics
