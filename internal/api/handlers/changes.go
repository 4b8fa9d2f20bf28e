package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/market-radar/internal/snapshot"
	"github.com/wonny/market-radar/pkg/logger"
)

// ChangesHandler serves day-over-day deltas from the snapshot history
type ChangesHandler struct {
	reader snapshot.Reader
	logger *logger.Logger
}

// NewChangesHandler creates a new changes handler
func NewChangesHandler(reader snapshot.Reader, log *logger.Logger) *ChangesHandler {
	return &ChangesHandler{reader: reader, logger: log}
}

// ChangesResponse lists the largest daily-return increases between the last two snapshots
type ChangesResponse struct {
	Available bool              `json:"available"`
	Changes   []snapshot.Change `json:"changes"`
}

// GetChanges returns the top N daily-return deltas
// GET /market/changes?n=5
func (h *ChangesHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	n := snapshot.DefaultChangesLimit
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			respondError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}

	yesterday, today, ok, err := snapshot.LoadLastTwo(r.Context(), h.reader)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshots")
		respondError(w, http.StatusInternalServerError, "Failed to load snapshot history")
		return
	}
	if !ok {
		respondJSON(w, http.StatusOK, ChangesResponse{Changes: []snapshot.Change{}})
		return
	}

	respondJSON(w, http.StatusOK, ChangesResponse{
		Available: true,
		Changes:   snapshot.DailyChanges(yesterday, today, n),
	})
}
