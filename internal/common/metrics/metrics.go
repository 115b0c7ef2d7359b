package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

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

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_notifications_created_total",
			Help: "Notifications persisted by the expiry sweeps",
		},
		[]string{"type", "priority"},
	)

	NotificationsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_notifications_suppressed_total",
			Help: "Notifications skipped because one exists inside the suppression window",
		},
		[]string{"type"},
	)

	SweepEntityErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_sweep_entity_errors_total",
			Help: "Entities skipped because processing failed",
		},
		[]string{"category"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "compliance_sweep_duration_seconds",
			Help: "Duration of a single category sweep",
		},
		[]string{"category"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_emails_total",
			Help: "Outbound notification emails by delivery status",
		},
		[]string{"provider", "status"},
	)

	AMLScreenings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aml_screenings_total",
			Help: "Completed AML screenings by outcome",
		},
		[]string{"status", "risk_level"},
	)
)
