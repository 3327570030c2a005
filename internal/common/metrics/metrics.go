// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_total",
			Help: "Total number of notification send attempts by channel and status",
		},
		[]string{"channel", "status"},
	)

	CronRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_cron_runs_total",
			Help: "Total number of scheduled trigger runs by job and status",
		},
		[]string{"job", "status"},
	)

	TriggerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dispatch_trigger_duration_seconds",
			Help: "Duration of trigger handling in seconds",
		},
		[]string{"trigger"},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_reports_generated_total",
			Help: "Total number of per-employee reports dispatched by type",
		},
		[]string{"type"},
	)
)
