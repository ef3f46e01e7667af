package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/warehop/bulkpick-api/internal/replication"
)

// ReplicationHandler exposes the operator-facing diagnostic endpoints:
// full-run backfill and the replication health report.
type ReplicationHandler struct {
	replicator *replication.Replicator
	logger     zerolog.Logger
}

func NewReplicationHandler(replicator *replication.Replicator, logger zerolog.Logger) *ReplicationHandler {
	return &ReplicationHandler{
		replicator: replicator,
		logger:     logger,
	}
}

// Backfill replays a whole run's picked quantities into the replica.
// Replication is best-effort, so the endpoint acknowledges the attempt
// rather than a guaranteed result.
func (h *ReplicationHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	runNo, err := strconv.Atoi(mux.Vars(r)["runNo"])
	if err != nil {
		http.Error(w, "Invalid run number", http.StatusBadRequest)
		return
	}

	h.replicator.ReplicateFullRun(r.Context(), runNo)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_no": runNo,
		"status": "backfill attempted",
	})
}

// Health returns the point-in-time row-count comparison for a run.
func (h *ReplicationHandler) Health(w http.ResponseWriter, r *http.Request) {
	runNo, err := strconv.Atoi(mux.Vars(r)["runNo"])
	if err != nil {
		http.Error(w, "Invalid run number", http.StatusBadRequest)
		return
	}

	report, err := h.replicator.CheckReplicationHealth(r.Context(), runNo)
	if err != nil {
		http.Error(w, "Failed to check replication health: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
