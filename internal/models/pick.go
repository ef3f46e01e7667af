package models

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PickEvent describes one confirmed bulk pick on the primary database.
// It is the unit of work handed to the replication engine and is never
// mutated after construction. EventID identifies the event across log
// lines, metrics and the failure outbox.
type PickEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	RunNo         int             `json:"run_no"`
	RowNum        int             `json:"row_num"`
	LineID        int             `json:"line_id"`
	PickedBulkQty decimal.Decimal `json:"picked_bulk_qty"`
	PickedQty     decimal.Decimal `json:"picked_qty"`
	LotNo         string          `json:"lot_no"`
	BinNo         string          `json:"bin_no"`
	UserID        string          `json:"user_id"`
}

// NewPickEvent stamps a fresh event id onto the pick identifiers.
func NewPickEvent(runNo, rowNum, lineID int, pickedBulkQty, pickedQty decimal.Decimal, lotNo, binNo, userID string) PickEvent {
	return PickEvent{
		EventID:       uuid.New(),
		RunNo:         runNo,
		RowNum:        rowNum,
		LineID:        lineID,
		PickedBulkQty: pickedBulkQty,
		PickedQty:     pickedQty,
		LotNo:         lotNo,
		BinNo:         binNo,
		UserID:        userID,
	}
}

// BulkPickedRow is the primary-store read model used by the full-run
// backfill. ItemKey and the quantities are nullable on rows that were
// seeded but never picked.
type BulkPickedRow struct {
	RunNo         int                 `json:"run_no"`
	RowNum        int                 `json:"row_num"`
	LineID        int                 `json:"line_id"`
	BatchNo       sql.NullString      `json:"batch_no"`
	ItemKey       sql.NullString      `json:"item_key"`
	ToPickedQty   decimal.NullDecimal `json:"to_picked_bulk_qty"`
	PickedBulkQty decimal.NullDecimal `json:"picked_bulk_qty"`
	PickedQty     decimal.NullDecimal `json:"picked_qty"`
	StandardQty   decimal.NullDecimal `json:"standard_qty"`
	PackSize      decimal.NullDecimal `json:"pack_size"`
}

// Picked reports whether the row represents a pick that actually
// happened: both quantities present and positive.
func (r BulkPickedRow) Picked() bool {
	return r.ItemKey.Valid &&
		r.PickedBulkQty.Valid && r.PickedBulkQty.Decimal.IsPositive() &&
		r.PickedQty.Valid && r.PickedQty.Decimal.IsPositive()
}

// HealthReport is the point-in-time row-count comparison between the
// primary and replica stores for one run. It is computed on demand and
// never persisted.
type HealthReport struct {
	RunNo        int  `json:"run_no"`
	PrimaryCount int  `json:"primary_count"`
	ReplicaCount int  `json:"replica_count"`
	IsHealthy    bool `json:"is_healthy"`
	Lag          int  `json:"lag"`
}
