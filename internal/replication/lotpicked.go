package replication

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warehop/bulkpick-api/internal/models"
)

// lotPickedTemplate holds the fixed values stamped onto synthesized
// cust_bulk_lot_picked rows. The mobile schema carries some forty
// legacy columns the pick event does not; audit or change their
// defaults here, not in the replication flow.
type lotPickedTemplate struct {
	TransactionType int
	ReceiptDocLine  int
	VendorKey       string
	VendorLotNo     string
	IssueDocLine    int
	CustomerKey     string
	DateQuarantine  string
	PackSize        decimal.Decimal
	PalletNo        string
	PalletID        string
	LotStatus       string
	ExpiryYears     int
}

var defaultLotPicked = lotPickedTemplate{
	TransactionType: 5, // bulk picking
	ReceiptDocLine:  1,
	VendorKey:       "BULK_PICK",
	VendorLotNo:     "MOBILE_LOT",
	IssueDocLine:    1,
	CustomerKey:     "INTERNAL",
	DateQuarantine:  "1900-01-01",
	PackSize:        decimal.NewFromInt(25),
	PalletNo:        "BULK-PALLET",
	PalletID:        "BULK-ID",
	LotStatus:       "P",
	ExpiryYears:     1,
}

const lotPickedExists = `
	SELECT COUNT(*)
	FROM cust_bulk_lot_picked
	WHERE run_no = $1 AND row_num = $2 AND line_id = $3 AND lot_no = $4`

const lotPickedAccumulate = `
	UPDATE cust_bulk_lot_picked
	SET qty_received = qty_received + $1,
	    alloc_lot_qty = alloc_lot_qty + $2,
	    modified_date = NOW()
	WHERE run_no = $3 AND row_num = $4 AND line_id = $5 AND lot_no = $6`

const lotPickedInsert = `
	INSERT INTO cust_bulk_lot_picked
		(run_no, row_num, line_id, lot_no, bin_no, item_key, location_key,
		 date_received, date_expiry, transaction_type,
		 receipt_doc_no, receipt_doc_line_no, qty_received,
		 vendor_key, vendor_lot_no, issue_doc_no, issue_doc_line_no, issue_date, qty_issued,
		 customer_key, rec_user_id, rec_date, modified_by, modified_date,
		 date_quarantine, pack_size, qty_on_hand, pallet_no, pallet_id,
		 user1, user2, user3, user4, user5, user6,
		 user7, user8, user9, user10, user11, user12,
		 alloc_lot_qty, lot_status,
		 custom1, custom2, custom3, custom4, custom5, custom6, custom7, custom8, custom9, custom10,
		 esg_reason, esg_approver)
	VALUES
		($1, $2, $3, $4, $5, $6, $7,
		 NOW(), NOW() + ($8 * INTERVAL '1 year'), $9,
		 $10, $11, $12,
		 $13, $14, $15, $16, NOW(), $17,
		 $18, $19, NOW(), $20, NOW(),
		 $21, $22, $23, $24, $25,
		 '', '', '', '', '', '1900-01-01',
		 0.0, 0.0, 0.0, 0.0, 0, 0,
		 $26, $27,
		 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		 '', '')`

// upsertLotPicked maintains the replica's lot-pick ledger row keyed by
// (run, row, line, lot). An existing row accumulates quantities, so a
// second partial pick of the same lot adds onto the first. A missing
// row is synthesized from the default template, deriving the item key
// from the bulk picked row written just before. If that row was missing
// the derived item key is NULL and the insert is left to the replica
// schema to accept or reject.
func (r *Replicator) upsertLotPicked(ctx context.Context, conn *sql.Conn, ev models.PickEvent) error {
	var count int
	if err := conn.QueryRowContext(ctx, lotPickedExists, ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo).Scan(&count); err != nil {
		return err
	}

	if count > 0 {
		_, err := conn.ExecContext(ctx, lotPickedAccumulate,
			ev.PickedQty, ev.PickedQty, ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo)
		return err
	}

	itemKey, err := r.items.FromBulkPicked(ctx, conn, ev.RunNo, ev.RowNum, ev.LineID)
	if err != nil {
		return err
	}

	receiptDocNo := fmt.Sprintf("BULK-%d-%d", ev.RunNo, ev.RowNum)
	issueDocNo := fmt.Sprintf("BT-BULK-%d", ev.RunNo)

	tpl := defaultLotPicked
	_, err = conn.ExecContext(ctx, lotPickedInsert,
		ev.RunNo,            // $1
		ev.RowNum,           // $2
		ev.LineID,           // $3
		ev.LotNo,            // $4
		ev.BinNo,            // $5
		itemKey,             // $6
		r.locationKey,       // $7
		tpl.ExpiryYears,     // $8
		tpl.TransactionType, // $9
		receiptDocNo,        // $10
		tpl.ReceiptDocLine,  // $11
		ev.PickedQty,        // $12 qty_received
		tpl.VendorKey,       // $13
		tpl.VendorLotNo,     // $14
		issueDocNo,          // $15
		tpl.IssueDocLine,    // $16
		ev.PickedQty,        // $17 qty_issued
		tpl.CustomerKey,     // $18
		ev.UserID,           // $19 rec_user_id
		ev.UserID,           // $20 modified_by
		tpl.DateQuarantine,  // $21
		tpl.PackSize,        // $22
		ev.PickedQty,        // $23 qty_on_hand
		tpl.PalletNo,        // $24
		tpl.PalletID,        // $25
		ev.PickedQty,        // $26 alloc_lot_qty
		tpl.LotStatus,       // $27
	)
	return err
}
