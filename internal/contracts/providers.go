package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned by providers when a symbol/range yields no prices
var ErrNoData = errors.New("no price data")

// PriceProvider fetches closing price history
// ⭐ SSOT: price source interface
type PriceProvider interface {
	// Fetch returns an ascending series for symbol over rng ("1mo", "3mo", ...).
	// It wraps ErrNoData when nothing is available.
	Fetch(ctx context.Context, symbol, rng string) (PriceSeries, error)
}

// UniverseSource loads the list of assets for a pass
type UniverseSource interface {
	Load(ctx context.Context) ([]Asset, error)
}

// SnapshotStore appends dated snapshot rows
// ⭐ SSOT: snapshot persistence interface
type SnapshotStore interface {
	Save(ctx context.Context, date time.Time, rows []SnapshotRow) error
}

// ReportPublisher exposes computed results to the API layer
// ⭐ SSOT: JSON artifact publishing interface
type ReportPublisher interface {
	PublishReport(ctx context.Context, report Report) error
	PublishAssets(ctx context.Context, updatedAt time.Time, results []AssetResult) error
}
