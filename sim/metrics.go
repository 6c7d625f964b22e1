package sim

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mcrf"

// RunMetrics holds the Prometheus metrics of simulation runs. Each RunMetrics owns a
// private registry, so several runs in one process never collide.
//
// Only the orchestrator goroutine updates these metrics.
type RunMetrics struct {
	Registry *prometheus.Registry

	// CellsSimulated counts cells assigned a category, over all realizations.
	CellsSimulated prometheus.Counter

	// RealizationsTotal counts finished realizations.
	// Labels: status (done, failed)
	RealizationsTotal *prometheus.CounterVec

	// RealizationSeconds measures the wall time of each realization.
	RealizationSeconds prometheus.Histogram
}

// NewRunMetrics creates the metrics on a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &RunMetrics{
		Registry: reg,
		CellsSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cells_simulated_total",
			Help:      "Cells assigned a category across all realizations",
		}),
		RealizationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "realizations_total",
			Help:      "Finished realizations by outcome",
		}, []string{"status"}),
		RealizationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "realization_seconds",
			Help:      "Wall time to simulate one realization",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
}

// WriteTextfile dumps the metrics in the Prometheus text format, e.g. for the node
// exporter's textfile collector.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func (m *RunMetrics) addCells(n int64) {
	if m != nil && n > 0 {
		m.CellsSimulated.Add(float64(n))
	}
}

func (m *RunMetrics) realizationFinished(status string, seconds float64) {
	if m == nil {
		return
	}
	m.RealizationsTotal.WithLabelValues(status).Inc()
	m.RealizationSeconds.Observe(seconds)
}
