package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/warehop/bulkpick-api/internal/models"
)

var ErrPickRowNotFound = errors.New("pick row not found")
var ErrRunStatusConflict = errors.New("run not in expected status")

type PickRepository interface {
	// ConfirmPick writes the picked quantities onto the primary row.
	// Returns ErrPickRowNotFound when no row matches (run, row, line).
	ConfirmPick(ctx context.Context, runNo, rowNum, lineID int, pickedBulkQty, pickedQty decimal.Decimal, userID string) error

	// ListRunRows returns every bulk picked row for a run.
	ListRunRows(ctx context.Context, runNo int) ([]models.BulkPickedRow, error)

	// CountPickedRows counts rows for the run with a positive picked
	// bulk quantity.
	CountPickedRows(ctx context.Context, runNo int) (int, error)

	// UpdateRunStatus moves a run between statuses, guarded by the
	// expected current status. Returns ErrRunStatusConflict when the
	// run is absent or not in fromStatus.
	UpdateRunStatus(ctx context.Context, runNo int, fromStatus, toStatus, userID string) error
}

type pickRepository struct {
	db *sql.DB
}

func NewPickRepository(db *sql.DB) PickRepository {
	return &pickRepository{db: db}
}

func (r *pickRepository) ConfirmPick(ctx context.Context, runNo, rowNum, lineID int, pickedBulkQty, pickedQty decimal.Decimal, userID string) error {
	const query = `
		UPDATE cust_bulk_picked
		SET picked_bulk_qty = $1,
		    picked_qty = $2,
		    picking_date = NOW(),
		    modified_by = $3,
		    modified_date = NOW()
		WHERE run_no = $4
		  AND row_num = $5
		  AND line_id = $6`

	res, err := r.db.ExecContext(ctx, query, pickedBulkQty, pickedQty, userID, runNo, rowNum, lineID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPickRowNotFound
	}
	return nil
}

func (r *pickRepository) ListRunRows(ctx context.Context, runNo int) ([]models.BulkPickedRow, error) {
	const query = `
		SELECT run_no, row_num, line_id, batch_no, item_key,
		       to_picked_bulk_qty, picked_bulk_qty, picked_qty,
		       standard_qty, pack_size
		FROM cust_bulk_picked
		WHERE run_no = $1
		ORDER BY row_num, line_id`

	rows, err := r.db.QueryContext(ctx, query, runNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.BulkPickedRow
	for rows.Next() {
		var row models.BulkPickedRow
		if err := rows.Scan(
			&row.RunNo,
			&row.RowNum,
			&row.LineID,
			&row.BatchNo,
			&row.ItemKey,
			&row.ToPickedQty,
			&row.PickedBulkQty,
			&row.PickedQty,
			&row.StandardQty,
			&row.PackSize,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *pickRepository) CountPickedRows(ctx context.Context, runNo int) (int, error) {
	const query = `
		SELECT COUNT(*) FROM cust_bulk_picked
		WHERE run_no = $1 AND picked_bulk_qty > 0`

	var count int
	if err := r.db.QueryRowContext(ctx, query, runNo).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pickRepository) UpdateRunStatus(ctx context.Context, runNo int, fromStatus, toStatus, userID string) error {
	const query = `
		UPDATE cust_bulk_run
		SET status = $1,
		    modified_by = $2,
		    modified_date = NOW()
		WHERE run_no = $3
		  AND status = $4`

	res, err := r.db.ExecContext(ctx, query, toStatus, userID, runNo, fromStatus)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRunStatusConflict
	}
	return nil
}
