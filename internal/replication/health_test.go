package replication

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCheckReplicationHealth_ReportsLag(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cust_bulk_picked`).
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{count: 10}, &fakeDocs{})
	report, err := r.CheckReplicationHealth(context.Background(), 200)

	assert.NoError(t, err)
	assert.Equal(t, 200, report.RunNo)
	assert.Equal(t, 10, report.PrimaryCount)
	assert.Equal(t, 7, report.ReplicaCount)
	assert.False(t, report.IsHealthy)
	assert.Equal(t, 3, report.Lag)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckReplicationHealth_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cust_bulk_picked`).
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{count: 10}, &fakeDocs{})
	report, err := r.CheckReplicationHealth(context.Background(), 200)

	assert.NoError(t, err)
	assert.True(t, report.IsHealthy)
	assert.Equal(t, 0, report.Lag)
}

func TestCheckReplicationHealth_ReplicaAheadReportsZeroLag(t *testing.T) {
	// Lag is the primary excess floored at zero; a replica ahead of
	// the primary never reports negative lag.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cust_bulk_picked`).
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	r := newTestReplicator(t, testProvider{db: db}, &fakePrimary{count: 5}, &fakeDocs{})
	report, err := r.CheckReplicationHealth(context.Background(), 200)

	assert.NoError(t, err)
	assert.False(t, report.IsHealthy)
	assert.Equal(t, 0, report.Lag)
}

func TestCheckReplicationHealth_NoReplicaCountsZero(t *testing.T) {
	r := newTestReplicator(t, testProvider{db: nil}, &fakePrimary{count: 4}, &fakeDocs{})
	report, err := r.CheckReplicationHealth(context.Background(), 300)

	assert.NoError(t, err)
	assert.Equal(t, 4, report.PrimaryCount)
	assert.Equal(t, 0, report.ReplicaCount)
	assert.False(t, report.IsHealthy)
	assert.Equal(t, 4, report.Lag)
}

func TestCheckReplicationHealth_PrimaryErrorPropagates(t *testing.T) {
	r := newTestReplicator(t, testProvider{db: nil}, &fakePrimary{countErr: errors.New("primary down")}, &fakeDocs{})
	_, err := r.CheckReplicationHealth(context.Background(), 300)
	assert.Error(t, err)
}
