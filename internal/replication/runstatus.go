package replication

import (
	"context"
	"database/sql"
)

// Run statuses mirrored onto the replica's cust_bulk_run table.
const (
	runStatusNew     = "NEW"
	runStatusPrinted = "PRINT"
)

const runStatusUpdate = `
	UPDATE cust_bulk_run
	SET status = $1,
	    modified_by = $2,
	    modified_date = NOW()
	WHERE run_no = $3
	  AND status = $4`

// ReplicateRunCompletion mirrors a run's NEW -> PRINT transition onto
// the replica. Best-effort: a missing run or one already past NEW
// affects zero rows and is only logged.
func (r *Replicator) ReplicateRunCompletion(ctx context.Context, runNo int, userID string) {
	r.replicateRunStatus(ctx, runNo, userID, runStatusNew, runStatusPrinted)
}

// ReplicateRunStatusRevert mirrors the reverse PRINT -> NEW transition,
// guarded by the current PRINT status so an already-reverted or absent
// run is left untouched.
func (r *Replicator) ReplicateRunStatusRevert(ctx context.Context, runNo int, userID string) {
	r.replicateRunStatus(ctx, runNo, userID, runStatusPrinted, runStatusNew)
}

func (r *Replicator) replicateRunStatus(ctx context.Context, runNo int, userID, fromStatus, toStatus string) {
	conn, err := r.replica.Acquire(ctx)
	if err != nil {
		r.logger.Error().Err(err).
			Int("run_no", runNo).
			Msg("Failed to acquire replica connection for run status replication")
		return
	}
	if conn == nil {
		r.logger.Warn().Msg("No replica database configured, skipping run status replication")
		return
	}
	defer conn.Close()

	// modified_by on the replica is limited to 8 characters.
	if len(userID) > 8 {
		userID = userID[:8]
	}

	res, err := conn.ExecContext(ctx, runStatusUpdate, toStatus, userID, runNo, fromStatus)
	if err != nil {
		r.logger.Error().Err(err).
			Int("run_no", runNo).
			Str("to_status", toStatus).
			Msg("Failed to replicate run status to mobile replica")
		return
	}

	if affected := rowsAffected(res); affected == 0 {
		r.logger.Warn().
			Int("run_no", runNo).
			Str("from_status", fromStatus).
			Str("to_status", toStatus).
			Msg("Run status replication affected zero rows, run absent or in a different state on replica")
		return
	}

	r.logger.Info().
		Int("run_no", runNo).
		Str("to_status", toStatus).
		Msg("Replicated run status to mobile replica")
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
