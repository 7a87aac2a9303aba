// Package metrics exposes Prometheus collectors for pipeline phases and
// tool calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a registry of its own. It implements
// isolate.Observer.
type Metrics struct {
	registry *prometheus.Registry

	phaseRuns     *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them, along with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		phaseRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mathsteps_phase_runs_total",
				Help: "Pipeline phase runs by outcome (changed, unchanged, error).",
			},
			[]string{"phase", "outcome"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mathsteps_phase_duration_seconds",
				Help:    "Duration of pipeline phases.",
				Buckets: prometheus.ExponentialBuckets(1e-5, 4, 8),
			},
			[]string{"phase"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mathsteps_tool_calls_total",
				Help: "Tool calls by tool and outcome (ok, error).",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "mathsteps_tool_duration_seconds",
				Help: "Duration of tool calls.",
			},
			[]string{"tool"},
		),
	}
	m.registry.MustRegister(
		m.phaseRuns, m.phaseDuration, m.toolCalls, m.toolDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePhase records one pipeline phase run.
func (m *Metrics) ObservePhase(phase string, changed bool, err error, elapsed time.Duration) {
	outcome := "unchanged"
	switch {
	case err != nil:
		outcome = "error"
	case changed:
		outcome = "changed"
	}
	m.phaseRuns.WithLabelValues(phase, outcome).Inc()
	m.phaseDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(tool string, failed bool, elapsed time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
