package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/market-radar/internal/contracts"
)

// Multi writes to several stores and reads from the first one
type Multi struct {
	stores []Store
}

// NewMulti creates a fan-out store. The first store is the read source.
func NewMulti(primary Store, others ...Store) *Multi {
	return &Multi{stores: append([]Store{primary}, others...)}
}

// Save writes to every store; a failing store does not stop the others
func (m *Multi) Save(ctx context.Context, date time.Time, rows []contracts.SnapshotRow) error {
	var errs []error
	for i, s := range m.stores {
		if err := s.Save(ctx, date, rows); err != nil {
			errs = append(errs, fmt.Errorf("store %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Dates implements Reader
func (m *Multi) Dates(ctx context.Context) ([]time.Time, error) {
	return m.stores[0].Dates(ctx)
}

// Load implements Reader
func (m *Multi) Load(ctx context.Context, date time.Time) ([]contracts.SnapshotRow, error) {
	return m.stores[0].Load(ctx, date)
}

// Prune prunes every store and reports the primary's count
func (m *Multi) Prune(ctx context.Context, before time.Time) (int, error) {
	var errs []error
	removed := 0
	for i, s := range m.stores {
		n, err := s.Prune(ctx, before)
		if err != nil {
			errs = append(errs, fmt.Errorf("store %d: %w", i, err))
			continue
		}
		if i == 0 {
			removed = n
		}
	}
	return removed, errors.Join(errs...)
}
