package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openradar/TINT/tint"
)

// Metrics holds the Prometheus counters and histograms of a tracking run.
// It implements tint.Observer.
type Metrics struct {
	ScansProcessed prometheus.Counter
	EmptyScans     prometheus.Counter
	CellsObserved  prometheus.Counter
	UIDsIssued     prometheus.Counter

	ShiftCorrections *prometheus.CounterVec // labels: case={local,global_override,global_fallback,local_only,none}
	ScanDuration     prometheus.Histogram
}

var _ tint.Observer = (*Metrics)(nil)

// NewMetrics creates and registers all tracking metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScansProcessed,
		m.EmptyScans,
		m.CellsObserved,
		m.UIDsIssued,
		m.ShiftCorrections,
		m.ScanDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScansProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tint",
			Name:      "scans_processed_total",
			Help:      "Total scans whose cells were written to the track table.",
		}),
		EmptyScans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tint",
			Name:      "empty_scans_total",
			Help:      "Total scans without any cell.",
		}),
		CellsObserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tint",
			Name:      "cells_observed_total",
			Help:      "Total track rows written.",
		}),
		UIDsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tint",
			Name:      "uids_issued_total",
			Help:      "Total unique cell ids issued.",
		}),
		ShiftCorrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tint",
			Name:      "shift_corrections_total",
			Help:      "Cell displacement predictions by the estimate they were taken from.",
		}, []string{"case"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tint",
			Name:      "scan_duration_seconds",
			Help:      "Duration of one scan transition.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ScanProcessed implements tint.Observer.
func (m *Metrics) ScanProcessed(scan, objects int, elapsed time.Duration) {
	m.ScansProcessed.Inc()
	m.CellsObserved.Add(float64(objects))
	m.ScanDuration.Observe(elapsed.Seconds())
}

// EmptyScan implements tint.Observer.
func (m *Metrics) EmptyScan(scan int) {
	m.EmptyScans.Inc()
}

// UIDsMinted implements tint.Observer.
func (m *Metrics) UIDsMinted(n int) {
	m.UIDsIssued.Add(float64(n))
}

// ShiftCorrected implements tint.Observer.
func (m *Metrics) ShiftCorrected(shiftCase tint.ShiftCase, n int) {
	m.ShiftCorrections.WithLabelValues(shiftCase.String()).Add(float64(n))
}
