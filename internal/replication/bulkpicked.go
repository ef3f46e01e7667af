package replication

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

const bulkPickedUpdate = `
	UPDATE cust_bulk_picked
	SET picked_bulk_qty = $1,
	    picked_qty = $2,
	    picking_date = NOW(),
	    modified_by = $3,
	    modified_date = NOW()
	WHERE run_no = $4
	  AND row_num = $5
	  AND line_id = $6`

// updateBulkPicked overwrites the quantity fields of the replica's
// picked-quantity row. The row is expected to be pre-seeded by the
// out-of-band run sync; when it is absent the update affects zero rows,
// which is logged as drift but treated as success.
func (r *Replicator) updateBulkPicked(ctx context.Context, conn *sql.Conn, runNo, rowNum, lineID int, pickedBulkQty, pickedQty decimal.Decimal, userID string) error {
	res, err := conn.ExecContext(ctx, bulkPickedUpdate,
		pickedBulkQty, pickedQty, userID, runNo, rowNum, lineID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		r.logger.Warn().
			Int("run_no", runNo).
			Int("row_num", rowNum).
			Int("line_id", lineID).
			Msg("Bulk picked row missing on replica, update affected zero rows")
	}
	return nil
}
