package replication

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warehop/bulkpick-api/internal/models"
)

func pickedRow(rowNum, lineID int, itemKey string, bulkQty, pickedQty int64) models.BulkPickedRow {
	return models.BulkPickedRow{
		RunNo:         400,
		RowNum:        rowNum,
		LineID:        lineID,
		ItemKey:       sql.NullString{String: itemKey, Valid: itemKey != ""},
		PickedBulkQty: decimal.NullDecimal{Decimal: decimal.NewFromInt(bulkQty), Valid: true},
		PickedQty:     decimal.NullDecimal{Decimal: decimal.NewFromInt(pickedQty), Valid: true},
	}
}

func TestReplicateFullRun_WritesOnlyPickedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	unpicked := pickedRow(2, 1, "ITEM-2", 0, 0)
	noItem := pickedRow(3, 1, "", 1, 10)
	primary := &fakePrimary{rows: []models.BulkPickedRow{
		pickedRow(1, 1, "ITEM-1", 2, 50),
		unpicked,
		noItem,
		pickedRow(4, 2, "ITEM-4", 1, 25),
	}}

	// Only rows 1 and 4 qualify, both attributed to SYSTEM.
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WithArgs(decimal.NewFromInt(2), decimal.NewFromInt(50), systemUserID, 400, 1, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WithArgs(decimal.NewFromInt(1), decimal.NewFromInt(25), systemUserID, 400, 4, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := newTestReplicator(t, testProvider{db: db}, primary, &fakeDocs{})
	r.ReplicateFullRun(context.Background(), 400)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, primary.listCalls)
}

func TestReplicateFullRun_EmptyRunIsNoOp(t *testing.T) {
	r := newTestReplicator(t, failingProvider{}, &fakePrimary{}, &fakeDocs{})
	// No rows on the primary: the replica connection is never acquired,
	// so even a broken provider is not touched.
	r.ReplicateFullRun(context.Background(), 401)
}

func TestReplicateFullRun_NoReplicaConfigured(t *testing.T) {
	primary := &fakePrimary{rows: []models.BulkPickedRow{pickedRow(1, 1, "ITEM-1", 2, 50)}}
	r := newTestReplicator(t, testProvider{db: nil}, primary, &fakeDocs{})
	r.ReplicateFullRun(context.Background(), 402)
}

func TestReplicateFullRun_DoesNotTouchLedgerTables(t *testing.T) {
	// Backfill deliberately writes only the picked-quantity table; the
	// lot ledger, lot master and transaction ledger stay as they are.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	primary := &fakePrimary{rows: []models.BulkPickedRow{pickedRow(1, 1, "ITEM-1", 2, 50)}}
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := newTestReplicator(t, testProvider{db: db}, primary, &fakeDocs{})
	r.ReplicateFullRun(context.Background(), 400)

	assert.NoError(t, mock.ExpectationsWereMet())
}
