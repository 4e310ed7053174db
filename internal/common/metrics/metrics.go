// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_turns_total",
			Help: "Conversation turns by starting state, classified label and outcome",
		},
		[]string{"state", "label", "outcome"},
	)

	AgentTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_turn_duration_seconds",
			Help:    "Duration of a conversation turn in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_classifications_total",
			Help: "Oracle classification calls by kind (intent, confirmation) and result",
		},
		[]string{"kind", "result"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Catalog searches by mode",
		},
		[]string{"mode"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_results_returned",
			Help:    "Number of restaurants returned per search",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		},
		[]string{"mode"},
	)

	CatalogRestaurants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_restaurants_loaded",
			Help: "Restaurants held by the catalog, by source",
		},
		[]string{"source"},
	)

	CatalogRowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rows_skipped_total",
			Help: "Malformed catalog rows skipped during load",
		},
		[]string{"source"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)
