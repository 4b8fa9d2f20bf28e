// Package returns derives daily, weekly and monthly percentage returns
// from a closing price series.
package returns

import (
	"errors"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/market-radar/internal/contracts"
)

// ErrInsufficientData is returned for an empty series
var ErrInsufficientData = errors.New("insufficient price data")

// Calculate computes every period for the series
// ⭐ SSOT: return math lives in this package only
//
// Missing horizons are returned as invalid values, never as errors.
func Calculate(series contracts.PriceSeries) (contracts.ReturnSet, error) {
	if series.Len() == 0 {
		return contracts.ReturnSet{}, ErrInsufficientData
	}

	return contracts.ReturnSet{
		Daily:   Daily(series.Points),
		Weekly:  Weekly(series.Points),
		Monthly: Monthly(series.Points),
	}, nil
}

// Daily is the last close against the previous close.
func Daily(points []contracts.PricePoint) null.Float {
	if len(points) < 2 {
		return null.Float{}
	}
	return pct(points[len(points)-1].Close, points[len(points)-2].Close)
}

// Weekly is the last close against the close of the prior week's Friday
// (or the latest session before it).
func Weekly(points []contracts.PricePoint) null.Float {
	if len(points) == 0 {
		return null.Float{}
	}

	last := points[len(points)-1]
	ref := LastFriday(last.Date)

	i := lastAtOrBefore(points, ref)
	if i < 0 {
		return null.Float{}
	}
	return pct(last.Close, points[i].Close)
}

// Monthly is the last close against the last session of the previous
// calendar month, or against the first available close when the series
// does not reach back that far.
func Monthly(points []contracts.PricePoint) null.Float {
	if len(points) == 0 {
		return null.Float{}
	}

	last := points[len(points)-1]
	ref := MonthStart(last.Date)

	i := lastAtOrBefore(points, ref.AddDate(0, 0, -1))
	if i < 0 {
		i = 0
	}
	return pct(last.Close, points[i].Close)
}

// LastFriday returns the Friday of the week before d.
// When d is itself a Friday the result is exactly seven days earlier.
func LastFriday(d time.Time) time.Time {
	day := Day(d)
	offset := ((int(day.Weekday())-int(time.Friday))%7 + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first calendar day of d's month
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar date (as seen in t's own location) at UTC midnight.
// Providers stamp sessions at different times of day; only the date matters here.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// lastAtOrBefore returns the index of the latest point dated on or before ref, or -1
func lastAtOrBefore(points []contracts.PricePoint, ref time.Time) int {
	for i := len(points) - 1; i >= 0; i-- {
		if !Day(points[i].Date).After(ref) {
			return i
		}
	}
	return -1
}

// pct is the raw percentage change; degenerate references yield NaN/Inf
// which callers treat as missing.
func pct(last, ref float64) null.Float {
	return null.FloatFrom((last/ref - 1) * 100)
}
