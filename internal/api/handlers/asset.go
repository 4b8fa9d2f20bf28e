package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/report"
	"github.com/wonny/market-radar/internal/returns"
	"github.com/wonny/market-radar/pkg/logger"
	"github.com/wonny/market-radar/pkg/redis"
)

// DefaultDetailPeriod is used when ?period= is absent
const DefaultDetailPeriod = "3mo"

var detailPeriods = map[string]bool{"1mo": true, "3mo": true, "6mo": true, "1y": true}

// AssetHandler builds the on-demand detail view of one asset
type AssetHandler struct {
	provider  contracts.PriceProvider
	universe  contracts.UniverseSource
	cache     *redis.Cache
	reportDir string
	logger    *logger.Logger
}

// NewAssetHandler creates a new asset handler. cache may be nil.
func NewAssetHandler(provider contracts.PriceProvider, universe contracts.UniverseSource, cache *redis.Cache, reportDir string, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		provider:  provider,
		universe:  universe,
		cache:     cache,
		reportDir: reportDir,
		logger:    log,
	}
}

// HistoryPoint is one close in the detail chart
type HistoryPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// AssetDetail is the response of GET /market/asset/{symbol}
type AssetDetail struct {
	Symbol          string              `json:"symbol"`
	Sector          string              `json:"sector"`
	CurrentPrice    float64             `json:"current_price"`
	PrevPrice       null.Float          `json:"prev_price"`
	High            float64             `json:"high"`
	Low             float64             `json:"low"`
	DailyReturn     null.Float          `json:"daily_return"`
	Returns         contracts.ReturnSet `json:"returns"`
	SectorAvgReturn null.Float          `json:"sector_avg_return"`
	History         []HistoryPoint      `json:"history"`
	Period          string              `json:"period"`
}

// GetAsset returns price history and returns for one symbol
// GET /market/asset/{symbol}?period=3mo
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.TrimSpace(mux.Vars(r)["symbol"])
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = DefaultDetailPeriod
	}
	if !detailPeriods[period] {
		respondError(w, http.StatusBadRequest, "period must be one of: 1mo, 3mo, 6mo, 1y")
		return
	}

	log := h.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"period": period,
	})

	key := redis.AssetDetailKey(symbol, period)
	if h.cache != nil {
		var cached AssetDetail
		found, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			log.WithError(err).Warn("Asset detail cache read failed")
		}
		if found {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	series, err := h.provider.Fetch(ctx, symbol, period)
	if err != nil {
		if errors.Is(err, contracts.ErrNoData) {
			respondError(w, http.StatusNotFound, "no price data for "+symbol)
			return
		}
		log.WithError(err).Error("Failed to fetch asset prices")
		respondError(w, http.StatusBadGateway, "Failed to fetch prices for "+symbol)
		return
	}

	set, err := returns.Calculate(series)
	if err != nil {
		respondError(w, http.StatusNotFound, "no price data for "+symbol)
		return
	}

	detail := buildDetail(symbol, period, series, set)
	detail.Sector = h.sectorOf(ctx, symbol)
	if detail.Sector != "" {
		detail.SectorAvgReturn = h.sectorAverage(detail.Sector, log)
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, detail, redis.TTLShort); err != nil {
			log.WithError(err).Warn("Asset detail cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, detail)
}

func buildDetail(symbol, period string, series contracts.PriceSeries, set contracts.ReturnSet) AssetDetail {
	points := series.Points
	last := series.Last()

	d := AssetDetail{
		Symbol:       symbol,
		CurrentPrice: roundPrice(last.Close),
		High:         last.Close,
		Low:          last.Close,
		DailyReturn:  roundPct(set.Daily),
		Returns: contracts.ReturnSet{
			Daily:   roundPct(set.Daily),
			Weekly:  roundPct(set.Weekly),
			Monthly: roundPct(set.Monthly),
		},
		History: make([]HistoryPoint, 0, len(points)),
		Period:  period,
	}
	if len(points) > 1 {
		d.PrevPrice = null.FloatFrom(roundPrice(points[len(points)-2].Close))
	}

	for _, p := range points {
		if p.Close > d.High {
			d.High = p.Close
		}
		if p.Close < d.Low {
			d.Low = p.Close
		}
		d.History = append(d.History, HistoryPoint{
			Date:  p.Date.Format("2006-01-02"),
			Price: roundPrice(p.Close),
		})
	}
	d.High = roundPrice(d.High)
	d.Low = roundPrice(d.Low)

	return d
}

// sectorOf looks the symbol up in the universe; unknown symbols have no sector
func (h *AssetHandler) sectorOf(ctx context.Context, symbol string) string {
	if h.universe == nil {
		return ""
	}
	assets, err := h.universe.Load(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Universe unavailable for asset detail")
		return ""
	}
	for _, a := range assets {
		if strings.EqualFold(a.Symbol, symbol) {
			return a.Sector
		}
	}
	return ""
}

// sectorAverage is the mean published daily return of the sector
func (h *AssetHandler) sectorAverage(sector string, log *logger.Logger) null.Float {
	_, results, err := report.ReadAssets(h.reportDir)
	if err != nil {
		log.WithError(err).Debug("No published assets for sector average")
		return null.Float{}
	}

	sum, n := 0.0, 0
	for _, r := range results {
		if r.Sector != sector || !r.Returns.Usable(contracts.Daily) {
			continue
		}
		sum += r.Returns.Daily.Float64
		n++
	}
	if n == 0 {
		return null.Float{}
	}
	return roundPct(null.FloatFrom(sum / float64(n)))
}

func roundPct(f null.Float) null.Float {
	if !contracts.IsFinite(f) {
		return null.Float{}
	}
	v, _ := decimal.NewFromFloat(f.Float64).Round(2).Float64()
	return null.FloatFrom(v)
}

func roundPrice(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return out
}
