// Package replication mirrors confirmed bulk picks from the primary
// operational database into the mobile replica. Every mirrored write is
// best-effort: failures are logged and counted, and in strict mode
// recorded to the primary failure outbox, but they are never surfaced
// to the pick-confirmation caller. There is no transaction spanning the
// two stores; a fault mid-sequence leaves the replica at some prefix of
// the write order.
package replication

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/warehop/bulkpick-api/internal/metrics"
	"github.com/warehop/bulkpick-api/internal/models"
)

// PrimaryStore is the slice of the primary database the engine reads:
// run rows for backfill and picked-row counts for the health report.
type PrimaryStore interface {
	ListRunRows(ctx context.Context, runNo int) ([]models.BulkPickedRow, error)
	CountPickedRows(ctx context.Context, runNo int) (int, error)
}

// DocumentNumberGenerator produces a unique document token per call.
// Failure aborts the lot-transaction insert for that event.
type DocumentNumberGenerator interface {
	Next(ctx context.Context, conn *sql.Conn) (string, error)
}

// FailureRecorder captures failed replication attempts into a durable
// side channel. Used only in strict mode; may be nil otherwise.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, ev models.PickEvent, cause error) error
}

type Options struct {
	// LocationKey is the fixed ERP location used by the lot writes.
	LocationKey string
	// StrictMode records failures to the outbox in addition to logging.
	StrictMode bool
}

// Replicator sequences the per-table replicators for one pick event.
type Replicator struct {
	replica     ConnProvider
	primary     PrimaryStore
	docs        DocumentNumberGenerator
	outbox      FailureRecorder
	items       ItemKeyResolver
	logger      zerolog.Logger
	locationKey string
	strict      bool
}

func New(replica ConnProvider, primary PrimaryStore, docs DocumentNumberGenerator, outbox FailureRecorder, logger zerolog.Logger, opts Options) *Replicator {
	locationKey := opts.LocationKey
	if locationKey == "" {
		locationKey = "TFC1"
	}
	return &Replicator{
		replica:     replica,
		primary:     primary,
		docs:        docs,
		outbox:      outbox,
		items:       sqlItemKeys{},
		logger:      logger.With().Str("component", "replication").Logger(),
		locationKey: locationKey,
		strict:      opts.StrictMode,
	}
}

// ReplicatePickTransaction mirrors one confirmed pick into the replica.
// It never reports failure to the caller; the outcome is observable
// only through logs, metrics and (in strict mode) the failure outbox.
func (r *Replicator) ReplicatePickTransaction(ctx context.Context, ev models.PickEvent) {
	if err := r.tryReplicate(ctx, ev); err != nil {
		metrics.ReplicationAttemptsTotal.WithLabelValues("failure").Inc()
		r.logger.Error().Err(err).
			Str("event_id", ev.EventID.String()).
			Int("run_no", ev.RunNo).
			Int("row_num", ev.RowNum).
			Int("line_id", ev.LineID).
			Str("lot_no", ev.LotNo).
			Msg("Failed to replicate bulk pick transaction to mobile replica")
		if r.strict && r.outbox != nil {
			if oerr := r.outbox.RecordFailure(ctx, ev, err); oerr != nil {
				r.logger.Error().Err(oerr).
					Str("event_id", ev.EventID.String()).
					Msg("Failed to record replication failure to outbox")
			}
		}
		return
	}
	metrics.ReplicationAttemptsTotal.WithLabelValues("success").Inc()
	r.logger.Info().
		Int("run_no", ev.RunNo).
		Str("lot_no", ev.LotNo).
		Msg("Replicated bulk pick transaction to mobile replica")
}

// tryReplicate executes the four table writes in fixed order, aborting
// on the first failure.
func (r *Replicator) tryReplicate(ctx context.Context, ev models.PickEvent) error {
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

	if err := r.updateBulkPicked(ctx, conn, ev.RunNo, ev.RowNum, ev.LineID, ev.PickedBulkQty, ev.PickedQty, ev.UserID); err != nil {
		return errors.Wrap(err, "replicate bulk picked update")
	}
	if err := r.upsertLotPicked(ctx, conn, ev); err != nil {
		return errors.Wrap(err, "replicate bulk lot picked upsert")
	}
	if err := r.updateLotMaster(ctx, conn, ev.LotNo, ev.PickedQty); err != nil {
		return errors.Wrap(err, "replicate lot master update")
	}
	if err := r.insertLotTransaction(ctx, conn, ev); err != nil {
		return errors.Wrap(err, "replicate lot transaction insert")
	}

	return nil
}
