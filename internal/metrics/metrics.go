package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReplicationAttemptsTotal counts orchestrated replication attempts by
// outcome ("success" or "failure"). Failures never reach the
// pick-confirmation caller, so this counter is the primary alerting
// signal for silent drift.
var ReplicationAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bulkpick_replication_attempts_total",
		Help: "Total pick replication attempts by outcome",
	},
	[]string{"outcome"},
)

// ReplicationSkippedTotal counts attempts short-circuited because no
// replica database is configured.
var ReplicationSkippedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "bulkpick_replication_skipped_total",
		Help: "Replication attempts skipped because no replica is configured",
	},
)

// BackfillRowsTotal counts rows written by full-run backfills.
var BackfillRowsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "bulkpick_backfill_rows_total",
		Help: "Rows replicated by full-run backfill",
	},
)

// ReplicationLag records the last observed primary-minus-replica row
// count per run, floored at zero.
var ReplicationLag = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bulkpick_replication_lag_rows",
		Help: "Picked rows present on the primary but missing on the replica",
	},
	[]string{"run_no"},
)
