// Package metrics holds the Prometheus collectors shared by the maintenance
// services. They register on the default registry, which the server exposes
// at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsExported counts rows written to backup files, per table.
	RowsExported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbops_rows_exported_total",
		Help: "Rows exported to backup files",
	}, []string{"table"})

	// RowsDeleted counts rows removed by the bulk delete, per table.
	RowsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbops_rows_deleted_total",
		Help: "Rows removed by bulk delete",
	}, []string{"table"})

	// RowsRestored counts rows inserted from backup files, per table.
	RowsRestored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbops_rows_restored_total",
		Help: "Rows inserted from backup files",
	}, []string{"table"})

	// BackupRuns counts backup runs by result (success, error, empty).
	BackupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbops_backup_runs_total",
		Help: "Backup runs by result",
	}, []string{"result"})

	// BackupDuration tracks how long a full backup takes.
	BackupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dbops_backup_duration_seconds",
		Help:    "Backup duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// OrderingFallbacks counts orderings that hit a reference cycle.
	OrderingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dbops_ordering_fallbacks_total",
		Help: "Table orderings that fell back because of a reference cycle",
	}, []string{"direction"})
)
