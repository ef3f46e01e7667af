package replication

import (
	"context"

	"github.com/pkg/errors"

	"github.com/warehop/bulkpick-api/internal/metrics"
)

// systemUserID is the actor recorded on rows written by backfills.
const systemUserID = "SYSTEM"

// ReplicateFullRun replays a whole run's confirmed picks into the
// replica for initial sync or backfill. Best-effort like the per-pick
// path: failures are logged, never returned.
//
// Only the picked-quantity table is written. The lot ledger, lot master
// and transaction ledger are deliberately left alone, so after a
// backfill the replica's picked quantities match the primary while its
// ledger tables do not.
func (r *Replicator) ReplicateFullRun(ctx context.Context, runNo int) {
	if err := r.tryReplicateFullRun(ctx, runNo); err != nil {
		metrics.ReplicationAttemptsTotal.WithLabelValues("failure").Inc()
		r.logger.Error().Err(err).
			Int("run_no", runNo).
			Msg("Failed to replicate full run to mobile replica")
		return
	}
	r.logger.Info().
		Int("run_no", runNo).
		Msg("Replicated full run to mobile replica")
}

func (r *Replicator) tryReplicateFullRun(ctx context.Context, runNo int) error {
	rows, err := r.primary.ListRunRows(ctx, runNo)
	if err != nil {
		return errors.Wrap(err, "query run rows from primary")
	}
	if len(rows) == 0 {
		r.logger.Warn().Int("run_no", runNo).Msg("No rows found for run on primary")
		return nil
	}

	conn, err := r.replica.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire replica connection")
	}
	if conn == nil {
		metrics.ReplicationSkippedTotal.Inc()
		r.logger.Warn().Msg("No replica database configured, skipping replication")
		return nil
	}
	defer conn.Close()

	for _, row := range rows {
		if !row.Picked() {
			continue
		}
		if err := r.updateBulkPicked(ctx, conn, runNo, row.RowNum, row.LineID,
			row.PickedBulkQty.Decimal, row.PickedQty.Decimal, systemUserID); err != nil {
			return errors.Wrapf(err, "replicate row %d line %d", row.RowNum, row.LineID)
		}
		metrics.BackfillRowsTotal.Inc()
	}

	return nil
}
