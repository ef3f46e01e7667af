package replication

import (
	"context"
	"database/sql"

	"github.com/warehop/bulkpick-api/internal/models"
)

const outboxInsert = `
	INSERT INTO replication_failures
		(event_id, run_no, row_num, line_id, lot_no, bin_no,
		 picked_bulk_qty, picked_qty, user_id, cause)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (event_id) DO NOTHING`

type sqlOutbox struct {
	db *sql.DB
}

// NewOutbox records failed replication attempts into the primary
// database's replication_failures table, keyed by the pick event id so
// a retried event overwrites nothing and is recorded once.
func NewOutbox(db *sql.DB) FailureRecorder {
	return &sqlOutbox{db: db}
}

func (o *sqlOutbox) RecordFailure(ctx context.Context, ev models.PickEvent, cause error) error {
	_, err := o.db.ExecContext(ctx, outboxInsert,
		ev.EventID, ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo, ev.BinNo,
		ev.PickedBulkQty, ev.PickedQty, ev.UserID, cause.Error())
	return err
}
