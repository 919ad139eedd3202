package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LogEntriesTotal tracks structured log entries by level and pipeline
	LogEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_log_entries_total",
			Help: "Total number of structured log entries written",
		},
		[]string{"level", "pipeline"},
	)

	// RetryAttemptsTotal tracks individual attempts made by the retry engine
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_retry_attempts_total",
			Help: "Total number of attempts executed by the retry engine",
		},
		[]string{"pipeline", "operation"},
	)

	// RetryOutcomesTotal tracks final retry outcomes
	RetryOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_retry_outcomes_total",
			Help: "Total number of retry executions by final result",
		},
		[]string{"pipeline", "operation", "result"},
	)

	// BreakerState exposes circuit breaker state (0=closed, 1=half-open, 2=open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ops_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"operation"},
	)

	// BreakerTripsTotal tracks transitions to the open state
	BreakerTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"operation"},
	)

	// AlertsTotal tracks alerts raised by the monitoring service
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_alerts_total",
			Help: "Total number of alerts raised",
		},
		[]string{"severity", "pipeline"},
	)

	// ErrorRate exposes the trailing error rate computed from the log store
	ErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ops_error_rate",
			Help: "Trailing error rate over the collection window",
		},
	)

	// CollectionDuration tracks how long one metric collection tick takes
	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ops_metric_collection_seconds",
			Help:    "Duration of metric collection ticks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
