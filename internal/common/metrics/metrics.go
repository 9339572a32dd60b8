// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow worker
var (
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

// Plan generation
var (
	PlanBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_builds_total",
			Help: "Total number of plan builds by outcome",
		},
		[]string{"outcome"},
	)

	PlanBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plan_build_duration_seconds",
			Help:    "Duration of a plan build including every model attempt",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	ModelAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_model_attempts_total",
			Help: "Total number of generation attempts per model",
		},
		[]string{"model", "result"},
	)

	ModelAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_model_attempt_duration_seconds",
			Help:    "Duration of one generation attempt",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"model"},
	)
)

// Live session
var (
	PoseFramesAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_pose_frames_analyzed_total",
			Help: "Frames that produced at least one pose, by classification",
		},
		[]string{"correct"},
	)

	PoseEstimationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "live_pose_estimation_failures_total",
			Help: "Frames whose pose estimation failed",
		},
	)

	PoseEstimationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "live_pose_estimation_duration_seconds",
			Help:    "Duration of one pose estimation call",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	LiveSessionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "live_session_state",
			Help: "1 for the current state of the live session, 0 otherwise",
		},
		[]string{"state"},
	)
)

// HTTP boundary
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests",
	},
	[]string{"method", "route", "status"},
)
