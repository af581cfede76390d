package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CyclesTotal counts completed evaluation cycles
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alert_cycles_total",
		Help: "Total number of alert evaluation cycles run",
	})

	// AlertsProcessed counts individual alert evaluations
	AlertsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alerts_processed_total",
		Help: "Total number of alerts evaluated",
	})

	// AlertsTriggered counts alerts that fired
	AlertsTriggered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alerts_triggered_total",
		Help: "Total number of alerts triggered",
	})

	// EvaluationErrors counts per-alert evaluation failures
	EvaluationErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alert_evaluation_errors_total",
		Help: "Total number of alert evaluations that failed",
	})

	// PriceCacheHits counts price reads served from Redis
	PriceCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_cache_hits_total",
		Help: "Total number of price lookups served from cache",
	})

	// PriceCacheMisses counts price reads that fell through to Postgres
	PriceCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "price_cache_misses_total",
		Help: "Total number of price lookups that missed the cache",
	})
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		AlertsProcessed,
		AlertsTriggered,
		EvaluationErrors,
		PriceCacheHits,
		PriceCacheMisses,
	)
}
