package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/logger"
)

func TestLoadLastTwo(t *testing.T) {
	ctx := context.Background()
	s := NewCSVStore(t.TempDir(), logger.Nop())

	_, _, ok, err := LoadLastTwo(ctx, s)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, date(16), []contracts.SnapshotRow{row("OLD", "Tech", null.FloatFrom(0))}))
	require.NoError(t, s.Save(ctx, date(17), []contracts.SnapshotRow{row("AAA", "Tech", null.FloatFrom(1))}))

	_, _, ok, err = LoadLastTwo(ctx, s)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Save(ctx, date(18), []contracts.SnapshotRow{row("AAA", "Tech", null.FloatFrom(3))}))

	y, td, ok, err := LoadLastTwo(ctx, s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, date(17), y[0].Date)
	assert.Equal(t, date(18), td[0].Date)
}

func TestDailyChanges(t *testing.T) {
	yesterday := []contracts.SnapshotRow{
		row("AAA", "Tech", null.FloatFrom(1)),
		row("BBB", "Tech", null.FloatFrom(2)),
		row("CCC", "Health", null.FloatFrom(-1)),
		row("DDD", "Energy", null.Float{}),
		row("GONE", "Energy", null.FloatFrom(5)),
	}
	today := []contracts.SnapshotRow{
		row("AAA", "Tech", null.FloatFrom(4)),
		row("BBB", "Tech", null.FloatFrom(1)),
		row("CCC", "Health", null.FloatFrom(2)),
		row("DDD", "Energy", null.FloatFrom(9)),
		row("NEW", "Energy", null.FloatFrom(7)),
	}

	got := DailyChanges(yesterday, today, 0)
	require.Len(t, got, 3)

	// AAA and CCC both +3: today's order decides
	assert.Equal(t, "AAA", got[0].Symbol)
	assert.Equal(t, "CCC", got[1].Symbol)
	assert.Equal(t, "BBB", got[2].Symbol)
	assert.InDelta(t, 3.0, got[0].Delta, 1e-9)
	assert.InDelta(t, -1.0, got[2].Delta, 1e-9)
	assert.Equal(t, "Health", got[1].Sector)

	assert.Len(t, DailyChanges(yesterday, today, 1), 1)
}

type failingStore struct{ Store }

func (failingStore) Save(context.Context, time.Time, []contracts.SnapshotRow) error {
	return errors.New("disk full")
}

func (failingStore) Prune(context.Context, time.Time) (int, error) {
	return 0, errors.New("disk full")
}

func TestMulti_SaveContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	csv := NewCSVStore(t.TempDir(), logger.Nop())
	m := NewMulti(csv, failingStore{})

	err := m.Save(ctx, date(18), []contracts.SnapshotRow{row("AAA", "Tech", null.FloatFrom(1))})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	rows, err := m.Load(ctx, date(18))
	require.NoError(t, err)
	assert.Len(t, rows, 1, "primary still written")

	n, err := m.Prune(ctx, date(19))
	assert.Error(t, err)
	assert.Equal(t, 1, n)
}
