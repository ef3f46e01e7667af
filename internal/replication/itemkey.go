package replication

import (
	"context"
	"database/sql"
	"errors"
)

// ItemKeyResolver resolves the ERP item identifier for a pick from rows
// already present on the replica. Resolution failure is reported as an
// invalid (NULL) key rather than an error; the replica schema decides
// whether a NULL item key is acceptable.
type ItemKeyResolver interface {
	FromBulkPicked(ctx context.Context, conn *sql.Conn, runNo, rowNum, lineID int) (sql.NullString, error)
	FromLotPicked(ctx context.Context, conn *sql.Conn, runNo, rowNum, lineID int, lotNo string) (sql.NullString, error)
}

type sqlItemKeys struct{}

const itemKeyFromBulkPicked = `
	SELECT item_key FROM cust_bulk_picked
	WHERE run_no = $1 AND row_num = $2 AND line_id = $3`

const itemKeyFromLotPicked = `
	SELECT item_key FROM cust_bulk_lot_picked
	WHERE run_no = $1 AND row_num = $2 AND line_id = $3 AND lot_no = $4`

func (sqlItemKeys) FromBulkPicked(ctx context.Context, conn *sql.Conn, runNo, rowNum, lineID int) (sql.NullString, error) {
	var key sql.NullString
	err := conn.QueryRowContext(ctx, itemKeyFromBulkPicked, runNo, rowNum, lineID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullString{}, nil
	}
	return key, err
}

func (sqlItemKeys) FromLotPicked(ctx context.Context, conn *sql.Conn, runNo, rowNum, lineID int, lotNo string) (sql.NullString, error) {
	var key sql.NullString
	err := conn.QueryRowContext(ctx, itemKeyFromLotPicked, runNo, rowNum, lineID, lotNo).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.NullString{}, nil
	}
	return key, err
}
