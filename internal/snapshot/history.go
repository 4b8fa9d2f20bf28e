package snapshot

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/market-radar/internal/contracts"
)

// DefaultChangesLimit is the number of rows DailyChanges returns for n <= 0
const DefaultChangesLimit = 5

// Change is the day-over-day move of an asset's daily return
type Change struct {
	Symbol    string  `json:"symbol"`
	Sector    string  `json:"sector"`
	Today     float64 `json:"today"`
	Yesterday float64 `json:"yesterday"`
	Delta     float64 `json:"delta"`
}

// LoadLastTwo returns the two most recent snapshots. ok is false when
// fewer than two snapshots exist.
func LoadLastTwo(ctx context.Context, r Reader) (yesterday, today []contracts.SnapshotRow, ok bool, err error) {
	dates, err := r.Dates(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	if len(dates) < 2 {
		return nil, nil, false, nil
	}

	yesterday, err = r.Load(ctx, dates[len(dates)-2])
	if err != nil {
		return nil, nil, false, fmt.Errorf("load previous snapshot: %w", err)
	}
	today, err = r.Load(ctx, dates[len(dates)-1])
	if err != nil {
		return nil, nil, false, fmt.Errorf("load latest snapshot: %w", err)
	}
	return yesterday, today, true, nil
}

// DailyChanges joins two snapshots on symbol and returns the n largest
// increases of the daily return. Symbols missing from either day, or with a
// missing daily value, are skipped. Ties keep today's order.
func DailyChanges(yesterday, today []contracts.SnapshotRow, n int) []Change {
	if n <= 0 {
		n = DefaultChangesLimit
	}

	prev := make(map[string]contracts.SnapshotRow, len(yesterday))
	for _, r := range yesterday {
		prev[r.Symbol] = r
	}

	changes := make([]Change, 0, len(today))
	for _, t := range today {
		y, ok := prev[t.Symbol]
		if !ok || !contracts.IsFinite(t.Daily) || !contracts.IsFinite(y.Daily) {
			continue
		}
		changes = append(changes, Change{
			Symbol:    t.Symbol,
			Sector:    t.Sector,
			Today:     t.Daily.Float64,
			Yesterday: y.Daily.Float64,
			Delta:     t.Daily.Float64 - y.Daily.Float64,
		})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Delta > changes[j].Delta
	})

	if len(changes) > n {
		changes = changes[:n]
	}
	return changes
}
