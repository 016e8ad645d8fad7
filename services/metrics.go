package services

import "github.com/prometheus/client_golang/prometheus"

var (
	backupsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_backups_started_total",
		Help: "Total backup runs started",
	})
	backupsSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_backups_succeeded_total",
		Help: "Total backup runs that completed successfully",
	})
	backupsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_backups_failed_total",
		Help: "Total backup runs that failed",
	})
	restoresStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_restores_started_total",
		Help: "Total restore runs started",
	})
	restoresSucceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_restores_succeeded_total",
		Help: "Total restore runs that completed successfully",
	})
	restoresFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_restores_failed_total",
		Help: "Total restore runs that failed",
	})
	schedulesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_schedules_created_total",
		Help: "Total backup schedules created",
	})
	schedulesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resticapi_schedules_deleted_total",
		Help: "Total backup schedules deleted",
	})
)

func init() {
	prometheus.MustRegister(
		backupsStarted, backupsSucceeded, backupsFailed,
		restoresStarted, restoresSucceeded, restoresFailed,
		schedulesCreated, schedulesDeleted,
	)
}
