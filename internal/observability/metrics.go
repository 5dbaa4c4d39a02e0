// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Fetch metrics
	FetchRequestsTotal *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	SamplesFetched     *prometheus.CounterVec

	// Store metrics
	RowsStored  *prometheus.CounterVec
	RowsUpdated *prometheus.CounterVec

	// Quality metrics
	OutliersFlagged prometheus.Counter
	SamplesDropped  *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "grid_ingest_lab"
	}

	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of ingestion runs by final status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Ingestion run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		FetchRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Total number of batch fetches by source and outcome",
		}, []string{"source", "status"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Batch fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		SamplesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "samples_total",
			Help:      "Total number of samples decoded from source responses",
		}, []string{"source"}),

		RowsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rows_stored_total",
			Help:      "Total number of new observation rows stored",
		}, []string{"source"}),
		RowsUpdated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rows_updated_total",
			Help:      "Total number of existing observation rows updated",
		}, []string{"source"}),

		OutliersFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "outliers_flagged_total",
			Help:      "Total number of observations flagged as implausible",
		}),
		SamplesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "samples_dropped_total",
			Help:      "Total number of samples dropped during normalization",
		}, []string{"source"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last fully successful run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun records a completed ingestion run.
func RecordRun(status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RunDuration.Observe(durationSeconds)
}

// RecordFetch records one batch fetch against a source.
func RecordFetch(source, status string, durationSeconds float64) {
	DefaultMetrics.FetchRequestsTotal.WithLabelValues(source, status).Inc()
	DefaultMetrics.FetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSamplesFetched adds to the decoded-samples counter.
func RecordSamplesFetched(source string, count int) {
	DefaultMetrics.SamplesFetched.WithLabelValues(source).Add(float64(count))
}

// RecordRowsWritten adds to the stored and updated row counters.
func RecordRowsWritten(source string, stored, updated int) {
	DefaultMetrics.RowsStored.WithLabelValues(source).Add(float64(stored))
	DefaultMetrics.RowsUpdated.WithLabelValues(source).Add(float64(updated))
}

// RecordOutliersFlagged adds to the flagged-observations counter.
func RecordOutliersFlagged(count int) {
	DefaultMetrics.OutliersFlagged.Add(float64(count))
}

// RecordSamplesDropped adds to the dropped-samples counter.
func RecordSamplesDropped(source string, count int) {
	DefaultMetrics.SamplesDropped.WithLabelValues(source).Add(float64(count))
}

// MarkSuccessfulRun updates the last successful run gauge.
func MarkSuccessfulRun(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
