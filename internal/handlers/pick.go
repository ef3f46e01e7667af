package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warehop/bulkpick-api/internal/authz"
	"github.com/warehop/bulkpick-api/internal/models"
	"github.com/warehop/bulkpick-api/internal/replication"
	"github.com/warehop/bulkpick-api/internal/repository"
)

type PickHandler struct {
	repo       repository.PickRepository
	replicator *replication.Replicator
	logger     zerolog.Logger
}

func NewPickHandler(repo repository.PickRepository, replicator *replication.Replicator, logger zerolog.Logger) *PickHandler {
	return &PickHandler{
		repo:       repo,
		replicator: replicator,
		logger:     logger,
	}
}

type confirmPickRequest struct {
	RowNum        int             `json:"row_num"`
	LineID        int             `json:"line_id"`
	PickedBulkQty decimal.Decimal `json:"picked_bulk_qty"`
	PickedQty     decimal.Decimal `json:"picked_qty"`
	LotNo         string          `json:"lot_no"`
	BinNo         string          `json:"bin_no"`
}

// ConfirmPick records the picked quantities on the primary store and
// then mirrors the pick to the mobile replica. The replication step is
// fire-and-forget: its outcome never changes the response.
func (h *PickHandler) ConfirmPick(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user identity", http.StatusUnauthorized)
		return
	}

	runNo, err := strconv.Atoi(mux.Vars(r)["runNo"])
	if err != nil {
		http.Error(w, "Invalid run number", http.StatusBadRequest)
		return
	}

	var req confirmPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if !req.PickedBulkQty.IsPositive() || !req.PickedQty.IsPositive() {
		http.Error(w, "Picked quantities must be positive", http.StatusBadRequest)
		return
	}
	if req.LotNo == "" {
		http.Error(w, "Lot number is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.ConfirmPick(r.Context(), runNo, req.RowNum, req.LineID, req.PickedBulkQty, req.PickedQty, userID); err != nil {
		if errors.Is(err, repository.ErrPickRowNotFound) {
			http.Error(w, "Pick row not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to confirm pick: "+err.Error(), http.StatusInternalServerError)
		return
	}

	event := models.NewPickEvent(runNo, req.RowNum, req.LineID, req.PickedBulkQty, req.PickedQty, req.LotNo, req.BinNo, userID)
	h.replicator.ReplicatePickTransaction(r.Context(), event)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":   "confirmed",
		"event_id": event.EventID.String(),
	})
}

// CompleteRun moves the run to PRINT on the primary and mirrors the
// transition to the replica.
func (h *PickHandler) CompleteRun(w http.ResponseWriter, r *http.Request) {
	h.updateRunStatus(w, r, "NEW", "PRINT")
}

// RevertRun moves the run back to NEW on the primary and mirrors the
// transition to the replica.
func (h *PickHandler) RevertRun(w http.ResponseWriter, r *http.Request) {
	h.updateRunStatus(w, r, "PRINT", "NEW")
}

func (h *PickHandler) updateRunStatus(w http.ResponseWriter, r *http.Request, fromStatus, toStatus string) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user identity", http.StatusUnauthorized)
		return
	}

	runNo, err := strconv.Atoi(mux.Vars(r)["runNo"])
	if err != nil {
		http.Error(w, "Invalid run number", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateRunStatus(r.Context(), runNo, fromStatus, toStatus, userID); err != nil {
		if errors.Is(err, repository.ErrRunStatusConflict) {
			http.Error(w, "Run not in expected status", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to update run status: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if toStatus == "PRINT" {
		h.replicator.ReplicateRunCompletion(r.Context(), runNo, userID)
	} else {
		h.replicator.ReplicateRunStatusRevert(r.Context(), runNo, userID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": toStatus})
}
