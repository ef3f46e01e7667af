package replication

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/warehop/bulkpick-api/internal/models"
)

// issueTransactionType is the mobile ERP's code for an inventory issue.
const issueTransactionType = 9

const lotTransactionInsert = `
	INSERT INTO lot_transaction
		(lot_no, item_key, location_key, transaction_type,
		 document_no, document_line_no, transaction_date,
		 transaction_qty, transaction_amount, transaction_ref,
		 bin_no, rec_user_id, rec_date, modified_by, modified_date)
	VALUES
		($1, $2, $3, $4,
		 $5, 1, NOW(),
		 $6, 0.0, $7,
		 $8, $9, NOW(), $10, NOW())`

// insertLotTransaction appends one issue row to the replica's
// transaction ledger: a fresh document number, the picked quantity
// negated, and a RUN<run>-<row>-<line> reference. Append-only with no
// duplicate check, so replaying an event produces a second ledger line.
func (r *Replicator) insertLotTransaction(ctx context.Context, conn *sql.Conn, ev models.PickEvent) error {
	docNo, err := r.docs.Next(ctx, conn)
	if err != nil {
		return errors.Wrap(err, "generate document number")
	}

	itemKey, err := r.items.FromLotPicked(ctx, conn, ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo)
	if err != nil {
		return err
	}

	reference := fmt.Sprintf("RUN%d-%d-%d", ev.RunNo, ev.RowNum, ev.LineID)

	_, err = conn.ExecContext(ctx, lotTransactionInsert,
		ev.LotNo,             // $1
		itemKey,              // $2
		r.locationKey,        // $3
		issueTransactionType, // $4
		docNo,                // $5
		ev.PickedQty.Neg(),   // $6 issues are negative
		reference,            // $7
		ev.BinNo,             // $8
		ev.UserID,            // $9
		ev.UserID,            // $10
	)
	return err
}
