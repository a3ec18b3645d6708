package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics for the cost API server
var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "costx_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path, and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costx_http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Record view metrics
var (
	// FetchDuration tracks how long a source takes to return raw records
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "costx_fetch_duration_seconds",
			Help:    "Duration of cost record fetches by source and outcome",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"source", "outcome"},
	)

	// FetchErrors counts failed fetches
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costx_fetch_errors_total",
			Help: "Total number of failed cost record fetches by source",
		},
		[]string{"source"},
	)

	// StaleFetches counts fetch results discarded because a newer fetch started
	StaleFetches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "costx_stale_fetches_total",
			Help: "Total number of fetch results discarded as stale",
		},
	)

	// RecordsIngested counts records kept, dropped and deduplicated at ingest
	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costx_records_ingested_total",
			Help: "Cost records seen at ingest by result (kept, dropped, duplicate)",
		},
		[]string{"result"},
	)

	// RevealedBatches counts batches appended to the visible window
	RevealedBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "costx_revealed_batches_total",
			Help: "Total number of record batches revealed",
		},
	)

	// StoreRecords is the size of the current record snapshot
	StoreRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "costx_store_records",
			Help: "Number of records in the current snapshot",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordFetch records the outcome of one fetch.
func RecordFetch(source string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		FetchErrors.WithLabelValues(source).Inc()
	}
	FetchDuration.WithLabelValues(source, outcome).Observe(duration.Seconds())
}

// RecordStaleFetch records a discarded fetch result.
func RecordStaleFetch() {
	StaleFetches.Inc()
}

// RecordIngest records the counts of one ingest and the new snapshot size.
func RecordIngest(kept, dropped, duplicates int) {
	RecordsIngested.WithLabelValues("kept").Add(float64(kept))
	RecordsIngested.WithLabelValues("dropped").Add(float64(dropped))
	RecordsIngested.WithLabelValues("duplicate").Add(float64(duplicates))
	StoreRecords.Set(float64(kept))
}

func RecordReveal() {
	RevealedBatches.Inc()
}
