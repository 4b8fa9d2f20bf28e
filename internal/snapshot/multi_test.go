package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/logger"
)

type brokenStore struct{ Store }

func (brokenStore) Save(context.Context, time.Time, []contracts.SnapshotRow) error {
	return errors.New("disk full")
}

func (brokenStore) Prune(context.Context, time.Time) (int, error) {
	return 0, errors.New("disk full")
}

func TestMulti_MirrorsWritesReadsPrimary(t *testing.T) {
	ctx := context.Background()
	primary := NewCSVStore(t.TempDir(), logger.Nop())
	mirror, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })

	m := NewMulti(primary, mirror)
	require.NoError(t, m.Save(ctx, date(17), []contracts.SnapshotRow{row("AAA", "Tech", null.FloatFrom(1))}))
	require.NoError(t, m.Save(ctx, date(18), []contracts.SnapshotRow{row("AAA", "Tech", null.FloatFrom(2))}))

	for _, s := range []Store{primary, mirror} {
		dates, err := s.Dates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{date(17), date(18)}, dates)
	}

	rows, err := m.Load(ctx, date(18))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 2.0, rows[0].Daily.Float64, 1e-9)

	removed, err := m.Prune(ctx, date(18))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	dates, err := mirror.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(18)}, dates)
}

func TestMulti_FailingMirrorDoesNotBlockPrimary(t *testing.T) {
	ctx := context.Background()
	primary := NewCSVStore(t.TempDir(), logger.Nop())
	m := NewMulti(primary, brokenStore{})

	err := m.Save(ctx, date(18), []contracts.SnapshotRow{row("AAA", "Tech", null.FloatFrom(1))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store 1")

	rows, err := primary.Load(ctx, date(18))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	removed, err := m.Prune(ctx, date(19))
	assert.Error(t, err)
	assert.Equal(t, 1, removed)
}
