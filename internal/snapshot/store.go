// Package snapshot persists one row per asset per day and reads the
// history back for day-over-day comparisons.
package snapshot

import (
	"context"
	"time"

	"github.com/wonny/market-radar/internal/contracts"
)

// DateLayout is the calendar date format used in file names and keys
const DateLayout = "2006-01-02"

// Reader reads stored snapshots
type Reader interface {
	// Dates lists every stored snapshot date, oldest first
	Dates(ctx context.Context) ([]time.Time, error)
	// Load returns the rows stored for date in insertion order
	Load(ctx context.Context, date time.Time) ([]contracts.SnapshotRow, error)
}

// Pruner deletes snapshots older than a cutoff
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}

// Store is a full snapshot backend
// ⭐ SSOT: every snapshot backend implements this
type Store interface {
	contracts.SnapshotStore
	Reader
	Pruner
}

// day truncates t to a UTC calendar date
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
