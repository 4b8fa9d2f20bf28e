// Package ranking orders asset results by period return and aggregates
// them per sector.
package ranking

import (
	"sort"

	"github.com/wonny/market-radar/internal/contracts"
)

// Order is the sort direction of a ranking
type Order int

const (
	Descending Order = iota // best performers first
	Ascending               // worst performers first
)

// Defaults applied when a caller passes topN <= 0
const (
	DefaultTopN       = 5
	DefaultSectorTopN = 3
)

// RankAssets returns at most topN results ordered by the period's return.
// Results whose return is missing, NaN or infinite are dropped. Equal returns
// keep their input order.
// ⭐ SSOT: asset ranking lives here only
func RankAssets(results []contracts.AssetResult, period contracts.Period, topN int, order Order) []contracts.AssetResult {
	if topN <= 0 {
		topN = DefaultTopN
	}

	ranked := make([]contracts.AssetResult, 0, len(results))
	for _, r := range results {
		if r.Returns.Usable(period) {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a := ranked[i].Returns.Get(period).Float64
		b := ranked[j].Returns.Get(period).Float64
		if order == Ascending {
			return a < b
		}
		return a > b
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// TopMovers is RankAssets in descending order
func TopMovers(results []contracts.AssetResult, period contracts.Period, limit int) []contracts.AssetResult {
	return RankAssets(results, period, limit, Descending)
}

// BottomMovers is RankAssets in ascending order
func BottomMovers(results []contracts.AssetResult, period contracts.Period, limit int) []contracts.AssetResult {
	return RankAssets(results, period, limit, Ascending)
}

// Build assembles the full report for one period
func Build(results []contracts.AssetResult, period contracts.Period, moversLimit, sectorTopN int) contracts.Report {
	return contracts.Report{
		Period:        period,
		TopMovers:     TopMovers(results, period, moversLimit),
		BottomMovers:  BottomMovers(results, period, moversLimit),
		SectorRanking: RankSectors(results, period),
		TopBySector:   TopBySector(results, period, sectorTopN),
	}
}
