package replication

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warehop/bulkpick-api/internal/models"
)

// connProvider over a sqlmock database.
type testProvider struct {
	db *sql.DB
}

func (p testProvider) Acquire(ctx context.Context) (*sql.Conn, error) {
	if p.db == nil {
		return nil, nil
	}
	return p.db.Conn(ctx)
}

type failingProvider struct{}

func (failingProvider) Acquire(ctx context.Context) (*sql.Conn, error) {
	return nil, errors.New("connection refused")
}

type fakePrimary struct {
	rows      []models.BulkPickedRow
	rowsErr   error
	count     int
	countErr  error
	listCalls int
}

func (f *fakePrimary) ListRunRows(ctx context.Context, runNo int) ([]models.BulkPickedRow, error) {
	f.listCalls++
	return f.rows, f.rowsErr
}

func (f *fakePrimary) CountPickedRows(ctx context.Context, runNo int) (int, error) {
	return f.count, f.countErr
}

type fakeDocs struct {
	docNo string
	err   error
	calls int
}

func (f *fakeDocs) Next(ctx context.Context, conn *sql.Conn) (string, error) {
	f.calls++
	return f.docNo, f.err
}

func newTestReplicator(t *testing.T, replica ConnProvider, primary PrimaryStore, docs DocumentNumberGenerator) *Replicator {
	t.Helper()
	return New(replica, primary, docs, nil, zerolog.Nop(), Options{LocationKey: "TFC1"})
}

func testEvent() models.PickEvent {
	return models.NewPickEvent(100, 1, 1,
		decimal.NewFromInt(2), decimal.NewFromInt(50), "L1", "A-01-01", "john.doe")
}

// expectPickSequence registers the expected statement order for one
// orchestrated replication of ev. lotRowExists selects the accumulate
// or synthesize branch of the lot-pick upsert.
func expectPickSequence(mock sqlmock.Sqlmock, ev models.PickEvent, lotRowExists bool) {
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WithArgs(ev.PickedBulkQty, ev.PickedQty, ev.UserID, ev.RunNo, ev.RowNum, ev.LineID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if lotRowExists {
		mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM cust_bulk_lot_picked`).
			WithArgs(ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec("UPDATE cust_bulk_lot_picked").
			WithArgs(ev.PickedQty, ev.PickedQty, ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo).
			WillReturnResult(sqlmock.NewResult(0, 1))
	} else {
		mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM cust_bulk_lot_picked`).
			WithArgs(ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT item_key FROM cust_bulk_picked").
			WithArgs(ev.RunNo, ev.RowNum, ev.LineID).
			WillReturnRows(sqlmock.NewRows([]string{"item_key"}).AddRow("ITEM-1"))
		mock.ExpectExec("INSERT INTO cust_bulk_lot_picked").
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	mock.ExpectExec("UPDATE lot_master").
		WithArgs(ev.PickedQty, ev.LotNo, "TFC1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT item_key FROM cust_bulk_lot_picked").
		WithArgs(ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo).
		WillReturnRows(sqlmock.NewRows([]string{"item_key"}).AddRow("ITEM-1"))
	mock.ExpectExec("INSERT INTO lot_transaction").
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestReplicatePickTransaction_NewLotRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ev := testEvent()
	expectPickSequence(mock, ev, false)

	docs := &fakeDocs{docNo: "BT-00000001"}
	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{}, docs)
	r.ReplicatePickTransaction(context.Background(), ev)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, docs.calls)
}

func TestReplicatePickTransaction_AccumulatesExistingLotRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ev := testEvent()
	expectPickSequence(mock, ev, true)

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{}, &fakeDocs{docNo: "BT-00000002"})
	r.ReplicatePickTransaction(context.Background(), ev)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplicatePickTransaction_NoReplicaConfigured(t *testing.T) {
	// No replica database configured: the orchestrator performs no
	// statements and the caller sees nothing.
	r := newTestReplicator(t, testProvider{db: nil}, &fakePrimary{}, &fakeDocs{})
	r.ReplicatePickTransaction(context.Background(), testEvent())
}

func TestReplicatePickTransaction_ReplicaUnreachable(t *testing.T) {
	// Connection failures are swallowed; the caller is unaffected.
	r := newTestReplicator(t, failingProvider{}, &fakePrimary{}, &fakeDocs{})
	r.ReplicatePickTransaction(context.Background(), testEvent())
}

func TestReplicatePickTransaction_AbortsAfterFailedStep(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ev := testEvent()
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WillReturnError(errors.New("replica constraint violation"))

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{}, &fakeDocs{})
	r.ReplicatePickTransaction(context.Background(), ev)

	// Later replicators never ran.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplicatePickTransaction_DocNumberFailureAbortsLedgerInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ev := testEvent()
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM cust_bulk_lot_picked`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("UPDATE cust_bulk_lot_picked").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE lot_master").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{}, &fakeDocs{err: errors.New("sequence exhausted")})
	r.ReplicatePickTransaction(context.Background(), ev)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplicatePickTransaction_ReplayDoubleCounts(t *testing.T) {
	// Replaying the same event runs the purely additive lot-master
	// update twice and appends a second ledger row. The ledger and the
	// balance are not idempotent by design.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ev := testEvent()
	expectPickSequence(mock, ev, false)
	expectPickSequence(mock, ev, true)

	docs := &fakeDocs{docNo: "BT-00000003"}
	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{}, docs)
	r.ReplicatePickTransaction(context.Background(), ev)
	r.ReplicatePickTransaction(context.Background(), ev)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 2, docs.calls)
}

func TestReplicatePickTransaction_MissingBulkRowIsSilentNoOp(t *testing.T) {
	// The picked-quantity update assumes the row was pre-seeded. When
	// it is absent the update affects zero rows and the sequence
	// continues; the synthesized lot row then carries a NULL item key.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ev := testEvent()
	mock.ExpectExec("UPDATE cust_bulk_picked").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\)\s+FROM cust_bulk_lot_picked`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT item_key FROM cust_bulk_picked").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO cust_bulk_lot_picked").
		WillReturnError(errors.New("null value in column \"item_key\""))

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{}, &fakeDocs{})
	r.ReplicatePickTransaction(context.Background(), ev)

	// Aborted at the lot-pick insert; lot master and ledger never ran.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplicatePickTransaction_StrictModeRecordsFailure(t *testing.T) {
	primaryDB, primaryMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer primaryDB.Close()

	ev := testEvent()
	primaryMock.ExpectExec("INSERT INTO replication_failures").
		WithArgs(ev.EventID, ev.RunNo, ev.RowNum, ev.LineID, ev.LotNo, ev.BinNo,
			ev.PickedBulkQty, ev.PickedQty, ev.UserID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := New(failingProvider{}, &fakePrimary{}, &fakeDocs{}, NewOutbox(primaryDB),
		zerolog.Nop(), Options{LocationKey: "TFC1", StrictMode: true})
	r.ReplicatePickTransaction(context.Background(), ev)

	assert.NoError(t, primaryMock.ExpectationsWereMet())
}
