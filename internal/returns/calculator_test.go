package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/internal/contracts"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func series(points ...contracts.PricePoint) contracts.PriceSeries {
	return contracts.PriceSeries{Symbol: "TEST", Points: points}
}

func pt(date time.Time, close float64) contracts.PricePoint {
	return contracts.PricePoint{Date: date, Close: close}
}

func TestCalculate_EmptySeries(t *testing.T) {
	_, err := Calculate(series())
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestCalculate_SinglePoint(t *testing.T) {
	got, err := Calculate(series(pt(d(2024, 1, 19), 100)))
	require.NoError(t, err)

	assert.False(t, got.Daily.Valid, "daily needs two points")
	assert.False(t, got.Weekly.Valid, "no price on or before the prior Friday")
	require.True(t, got.Monthly.Valid)
	assert.InDelta(t, 0.0, got.Monthly.Float64, 1e-9)
}

func TestCalculate_TwoPoints(t *testing.T) {
	got, err := Calculate(series(
		pt(d(2024, 1, 18), 100),
		pt(d(2024, 1, 19), 110),
	))
	require.NoError(t, err)

	require.True(t, got.Daily.Valid)
	assert.InDelta(t, 10.0, got.Daily.Float64, 1e-9)

	// Friday 19th -> reference is Friday 12th, which the series does not reach
	assert.False(t, got.Weekly.Valid)

	// Whole series inside January -> falls back to the first close
	require.True(t, got.Monthly.Valid)
	assert.InDelta(t, 10.0, got.Monthly.Float64, 1e-9)
}

func TestLastFriday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"friday steps back a full week", d(2024, 1, 19), d(2024, 1, 12)},
		{"saturday", d(2024, 1, 20), d(2024, 1, 19)},
		{"sunday", d(2024, 1, 21), d(2024, 1, 19)},
		{"monday", d(2024, 1, 22), d(2024, 1, 19)},
		{"thursday", d(2024, 1, 18), d(2024, 1, 12)},
		{"across month boundary", d(2024, 2, 1), d(2024, 1, 26)},
		{"time of day ignored", time.Date(2024, 1, 19, 21, 0, 0, 0, time.UTC), d(2024, 1, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastFriday(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Friday, got.Weekday())
			assert.True(t, got.Before(Day(tt.in)), "reference must never be the current date")
		})
	}
}

func TestWeekly_UsesLatestPriceOnOrBeforeReference(t *testing.T) {
	// Friday 12th is a holiday; Thursday 11th is the reference session
	got := Weekly([]contracts.PricePoint{
		pt(d(2024, 1, 10), 100),
		pt(d(2024, 1, 11), 105),
		pt(d(2024, 1, 16), 110),
		pt(d(2024, 1, 19), 120),
	})

	require.True(t, got.Valid)
	assert.InDelta(t, (120.0/105.0-1)*100, got.Float64, 1e-9)
}

func TestWeekly_ReferenceFridayPresent(t *testing.T) {
	got := Weekly([]contracts.PricePoint{
		pt(d(2024, 1, 12), 200),
		pt(d(2024, 1, 15), 190),
		pt(d(2024, 1, 17), 210),
	})

	require.True(t, got.Valid)
	assert.InDelta(t, 5.0, got.Float64, 1e-9)
}

func TestWeekly_IntradayTimestamps(t *testing.T) {
	// Providers stamp sessions at market open; the date alone decides
	got := Weekly([]contracts.PricePoint{
		pt(time.Date(2024, 1, 12, 14, 30, 0, 0, time.UTC), 50),
		pt(time.Date(2024, 1, 19, 14, 30, 0, 0, time.UTC), 55),
	})

	require.True(t, got.Valid)
	assert.InDelta(t, 10.0, got.Float64, 1e-9)
}

func TestMonthly_PriorMonthReference(t *testing.T) {
	got := Monthly([]contracts.PricePoint{
		pt(d(2023, 12, 28), 50),
		pt(d(2023, 12, 29), 80),
		pt(d(2024, 1, 2), 90),
		pt(d(2024, 1, 19), 100),
	})

	require.True(t, got.Valid)
	assert.InDelta(t, 25.0, got.Float64, 1e-9)
}

func TestMonthly_FallbackToEarliest(t *testing.T) {
	got := Monthly([]contracts.PricePoint{
		pt(d(2024, 3, 1), 40),
		pt(d(2024, 3, 8), 44),
		pt(d(2024, 3, 15), 50),
	})

	require.True(t, got.Valid)
	assert.InDelta(t, 25.0, got.Float64, 1e-9)
}

func TestCalculate_DegenerateReferenceIsNotUsable(t *testing.T) {
	got, err := Calculate(series(
		pt(d(2024, 1, 18), 0),
		pt(d(2024, 1, 19), 0),
	))
	require.NoError(t, err)

	// 0/0 - 1 -> NaN: present but treated as missing downstream
	assert.True(t, got.Daily.Valid)
	assert.False(t, got.Usable(contracts.Daily))
	assert.False(t, got.Usable(contracts.Monthly))
}

func TestCalculate_ZeroPreviousCloseIsMissing(t *testing.T) {
	s := contracts.NewPriceSeries("TEST", []contracts.PricePoint{
		pt(d(2024, 1, 17), 100),
		pt(d(2024, 1, 18), 0),
		pt(d(2024, 1, 19), 50),
	})
	require.Equal(t, 3, s.Len())

	got, err := Calculate(s)
	require.NoError(t, err)

	// 50/0 - 1 -> +Inf, never a return measured across the zero bar
	assert.False(t, got.Usable(contracts.Daily))
	assert.True(t, got.Usable(contracts.Monthly))
	assert.InDelta(t, -50.0, got.Monthly.Float64, 1e-9)
}

func TestMonthStart(t *testing.T) {
	assert.Equal(t, d(2024, 2, 1), MonthStart(d(2024, 2, 29)))
	assert.Equal(t, d(2024, 1, 1), MonthStart(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)))
}
