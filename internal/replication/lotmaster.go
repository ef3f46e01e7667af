package replication

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

const lotMasterCommit = `
	UPDATE lot_master
	SET qty_commit_sales = qty_commit_sales + $1,
	    modified_date = NOW()
	WHERE lot_no = $2 AND location_key = $3`

// updateLotMaster adds the picked quantity onto the lot's committed
// balance at the fixed location. Purely additive: replaying the same
// event double-counts the commitment.
func (r *Replicator) updateLotMaster(ctx context.Context, conn *sql.Conn, lotNo string, pickedQty decimal.Decimal) error {
	res, err := conn.ExecContext(ctx, lotMasterCommit, pickedQty, lotNo, r.locationKey)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		r.logger.Warn().
			Str("lot_no", lotNo).
			Str("location_key", r.locationKey).
			Msg("Lot master row missing on replica, commit update affected zero rows")
	}
	return nil
}
