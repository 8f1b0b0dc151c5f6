package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cabwad/hris/app/web/enums"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hris_backups_total",
		Help: "Backup operations by operation and status",
	}, []string{"operation", "status"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hris_backup_duration_seconds",
		Help:    "Duration of backup and restore runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"operation"})
)

func observe(op enums.BackupOperation, status enums.BackupStatus, seconds float64) {
	operationsTotal.WithLabelValues(op.String(), status.String()).Inc()
	if seconds > 0 {
		operationDuration.WithLabelValues(op.String()).Observe(seconds)
	}
}
