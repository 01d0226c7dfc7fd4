package saa

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/pave-saa/saa/linprog"
)

// Metrics collects solver and estimator counters on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	solves       *prometheus.CounterVec
	solveSeconds prometheus.Histogram
	batches      *prometheus.CounterVec
	gapPercent   prometheus.Gauge
	lowerBound   prometheus.Gauge
	upperBound   prometheus.Gauge
}

// NewMetrics registers the pave_saa_* collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pave_saa_lp_solves_total",
			Help: "LP solves by outcome status.",
		}, []string{"status"}),
		solveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pave_saa_lp_solve_seconds",
			Help:    "Wall time of a single LP solve.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pave_saa_batches_total",
			Help: "Lower-bound batches by outcome.",
		}, []string{"outcome"}),
		gapPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pave_saa_bound_gap_percent",
			Help: "Optimality gap of the last estimate, percent of the upper bound.",
		}),
		lowerBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pave_saa_lower_bound_kgco2e",
			Help: "SAA lower bound of the last estimate.",
		}),
		upperBound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pave_saa_upper_bound_kgco2e",
			Help: "SAA upper bound of the last estimate.",
		}),
	}
	m.Registry.MustRegister(m.solves, m.solveSeconds, m.batches, m.gapPercent, m.lowerBound, m.upperBound)
	return m
}

// WriteTextfile writes the registry in Prometheus text format, suitable for
// the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) observeSolve(status linprog.Status, d time.Duration) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(string(status)).Inc()
	m.solveSeconds.Observe(d.Seconds())
}

func (m *Metrics) observeBatch(success bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "succeeded"
	}
	m.batches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeEstimate(est *BoundEstimate) {
	if m == nil || est == nil {
		return
	}
	m.gapPercent.Set(est.GapPercent)
	m.lowerBound.Set(est.LowerBound)
	m.upperBound.Set(est.UpperBound)
}
