package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/report"
	"github.com/wonny/market-radar/pkg/logger"
)

// MarketHandler serves the published JSON artifacts
// ⭐ SSOT: artifact read endpoints live here
type MarketHandler struct {
	dir    string
	logger *logger.Logger
}

// NewMarketHandler creates a handler reading artifacts from dir
func NewMarketHandler(dir string, log *logger.Logger) *MarketHandler {
	return &MarketHandler{dir: dir, logger: log}
}

// GetPeriod returns <period>.json verbatim
// GET /market/{period}
func (h *MarketHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := contracts.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.serveFile(w, report.FileName(period))
}

// GetAll returns all_assets.json verbatim
// GET /market/all
func (h *MarketHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, report.AllAssetsFile)
}

func (h *MarketHandler) serveFile(w http.ResponseWriter, name string) {
	data, err := os.ReadFile(filepath.Join(h.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(w, http.StatusNotFound, name+" not found")
			return
		}
		h.logger.WithError(err).WithField("file", name).Error("Failed to read artifact")
		respondError(w, http.StatusInternalServerError, "Failed to read "+name)
		return
	}

	respondRaw(w, http.StatusOK, data)
}
