// Package metrics exposes engine counters and timings in Prometheus format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"veritas/internal/evidence"
	"veritas/internal/stageexec"
)

// Metrics provides observability for the analysis engine.
type Metrics struct {
	registry *prometheus.Registry

	// Verdicts by evidence kind and verdict label
	Verdicts *prometheus.CounterVec

	// Stage latencies by stage and outcome
	StageLatency *prometheus.HistogramVec

	// Readings produced without a real measurement
	SimulatedReadings *prometheus.CounterVec

	// Whole-call latency
	AnalyzeLatency prometheus.Histogram
}

// New creates a Metrics instance on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_verdicts_total",
			Help: "Total verdicts by evidence kind and verdict",
		}, []string{"kind", "verdict"}),

		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veritas_stage_duration_seconds",
			Help:    "Duration of analysis stages by outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage", "outcome"}),

		SimulatedReadings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_simulated_readings_total",
			Help: "Readings produced by simulation because a capability was missing",
		}, []string{"stage"}),

		AnalyzeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_analyze_duration_seconds",
			Help:    "Duration of a full analysis call",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records a stage duration.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, outcome stageexec.Outcome) {
	if m == nil {
		return
	}
	m.StageLatency.WithLabelValues(stage, string(outcome)).Observe(elapsed.Seconds())
	if outcome == stageexec.OutcomeSimulated {
		m.SimulatedReadings.WithLabelValues(stage).Inc()
	}
}

// ObserveVerdict records a finished analysis.
func (m *Metrics) ObserveVerdict(kind evidence.Kind, verdict evidence.Verdict, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(string(kind), string(verdict)).Inc()
	m.AnalyzeLatency.Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
