package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "locallens"

// Model load results.
const (
	LoadCached      = "cached"
	LoadLoaded      = "loaded"
	LoadUnavailable = "unavailable"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Forecasting metrics
	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_model_loads_total",
			Help: "Model repository lookups by result",
		},
		[]string{"result"},
	)

	ForecastSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_forecast_skips_total",
			Help: "Products skipped during forecasting by reason",
		},
		[]string{"reason"},
	)

	ForecastCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_forecast_cache_total",
			Help: "Forecast cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	ForecastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_forecast_duration_seconds",
			Help:    "Duration of a single product forecast in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Triage metrics
	TriageRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_triage_runs_total",
			Help: "Total number of triage runs",
		},
		[]string{"scope", "result"},
	)

	TriageRestockProducts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_triage_restock_products",
			Help: "Products with a positive shortfall in the latest triage run",
		},
		[]string{"scope"},
	)

	// Database operation metrics
	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)
)

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

func RecordModelLoad(result string) {
	ModelLoadsTotal.WithLabelValues(result).Inc()
}

func RecordSkip(reason string) {
	ForecastSkipsTotal.WithLabelValues(reason).Inc()
}

func RecordForecastCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	ForecastCacheTotal.WithLabelValues(outcome).Inc()
}

// RecordTriageRun counts a run and, on success, publishes the restock size.
func RecordTriageRun(scope string, restock int, err error) {
	if err != nil {
		TriageRunsTotal.WithLabelValues(scope, "error").Inc()
		return
	}
	TriageRunsTotal.WithLabelValues(scope, "ok").Inc()
	TriageRestockProducts.WithLabelValues(scope).Set(float64(restock))
}
