// Package metrics exposes pipeline counters via Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. Registration happens
// once at construction against the default registry.
type Metrics struct {
	RowsExtracted prometheus.Counter
	RowsValid     prometheus.Counter
	RowsDropped   prometheus.Counter
	RowsInserted  prometheus.Counter
	RowsDuplicate *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
	RunsInFlight  prometheus.Gauge
	RunDuration   prometheus.Histogram
}

// New registers and returns the pipeline metrics.
func New() *Metrics {
	return &Metrics{
		RowsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "normapipe_rows_extracted_total",
			Help: "Raw rows produced by extraction",
		}),
		RowsValid: promauto.NewCounter(prometheus.CounterOpts{
			Name: "normapipe_rows_valid_total",
			Help: "Rows that survived validation",
		}),
		RowsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "normapipe_rows_dropped_total",
			Help: "Rows discarded by validation",
		}),
		RowsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "normapipe_rows_inserted_total",
			Help: "Rows inserted into the regulations table",
		}),
		RowsDuplicate: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "normapipe_rows_duplicate_total",
			Help: "Duplicate rows skipped, by kind (existing or internal)",
		}, []string{"kind"}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "normapipe_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"outcome"}),
		RunsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "normapipe_runs_in_flight",
			Help: "Pipeline runs currently executing",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "normapipe_run_duration_seconds",
			Help:    "Wall time per pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// ObserveValidation records a validation report's row counts.
func (m *Metrics) ObserveValidation(input, valid, dropped int) {
	m.RowsExtracted.Add(float64(input))
	m.RowsValid.Add(float64(valid))
	m.RowsDropped.Add(float64(dropped))
}

// ObserveWrite records a write pass.
func (m *Metrics) ObserveWrite(inserted, dupExisting, dupInternal int) {
	m.RowsInserted.Add(float64(inserted))
	m.RowsDuplicate.WithLabelValues("existing").Add(float64(dupExisting))
	m.RowsDuplicate.WithLabelValues("internal").Add(float64(dupInternal))
}
