package ranking

import (
	"sort"

	"github.com/wonny/market-radar/internal/contracts"
)

// RankSectors averages the usable returns of each sector and orders sectors
// by that mean, highest first. Sectors with no usable member are excluded.
// Ties keep the order in which sectors first appear in results.
func RankSectors(results []contracts.AssetResult, period contracts.Period) []contracts.SectorRankEntry {
	type acc struct {
		sum   float64
		count int
	}

	order := make([]string, 0)
	sums := make(map[string]*acc)

	for _, r := range results {
		if !r.Returns.Usable(period) {
			continue
		}
		a, ok := sums[r.Sector]
		if !ok {
			a = &acc{}
			sums[r.Sector] = a
			order = append(order, r.Sector)
		}
		a.sum += r.Returns.Get(period).Float64
		a.count++
	}

	entries := make([]contracts.SectorRankEntry, 0, len(order))
	for _, sector := range order {
		a := sums[sector]
		entries = append(entries, contracts.SectorRankEntry{
			Sector:    sector,
			AvgReturn: a.sum / float64(a.count),
			Count:     a.count,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AvgReturn > entries[j].AvgReturn
	})

	return entries
}

// TopBySector keeps the topN best members of each sector for the period.
// Sectors without any usable member are absent from the map.
func TopBySector(results []contracts.AssetResult, period contracts.Period, topN int) map[string][]contracts.SectorMember {
	if topN <= 0 {
		topN = DefaultSectorTopN
	}

	grouped := make(map[string][]contracts.SectorMember)
	for _, r := range results {
		if !r.Returns.Usable(period) {
			continue
		}
		typ := r.Type
		if typ == "" {
			typ = contracts.UnknownType
		}
		grouped[r.Sector] = append(grouped[r.Sector], contracts.SectorMember{
			Symbol: r.Symbol,
			Return: r.Returns.Get(period).Float64,
			Type:   typ,
		})
	}

	for sector, members := range grouped {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Return > members[j].Return
		})
		if len(members) > topN {
			members = members[:topN]
		}
		grouped[sector] = members
	}

	return grouped
}
