// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions counts finished resolutions by the tier that produced them.
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_resolutions_total",
			Help: "Total number of resolved questions by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	ClassifierCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_classifier_calls_total",
			Help: "External classifier calls by scope and result",
		},
		[]string{"scope", "result"},
	)

	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intent_resolve_duration_seconds",
			Help:    "Duration of a single resolve call in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"tier"},
	)

	ContextSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intent_context_sessions",
			Help: "Number of conversation contexts held in memory",
		},
	)

	TierFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_tier_failures_total",
			Help: "Tier failures converted to fallback transitions",
		},
		[]string{"tier", "error_code"},
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
