package contracts

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
)

// Period is a return horizon
// ⭐ SSOT: return horizons are only defined here
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Periods lists every horizon in publishing order
var Periods = []Period{Daily, Weekly, Monthly}

// ParsePeriod parses a period name ("daily", "day", ...)
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

func (p Period) String() string { return string(p) }

// PricePoint is one closing price
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"price"`
}

// PriceSeries is a chronologically ascending closing price history for one symbol.
// Dates are unique.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// NewPriceSeries normalises raw provider points: NaN/Inf closes (null bars)
// are dropped, dates are truncated to the calendar day, points are sorted
// ascending and a repeated date keeps its last point. Zero closes are kept
// so a return against them comes out non-finite and is treated as missing.
func NewPriceSeries(symbol string, points []PricePoint) PriceSeries {
	clean := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			continue
		}
		p.Date = time.Date(p.Date.Year(), p.Date.Month(), p.Date.Day(), 0, 0, 0, 0, time.UTC)
		clean = append(clean, p)
	}

	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})

	out := clean[:0]
	for _, p := range clean {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}

	return PriceSeries{Symbol: symbol, Points: out}
}

// Len returns the number of points
func (s PriceSeries) Len() int { return len(s.Points) }

// Last returns the most recent point. The series must not be empty.
func (s PriceSeries) Last() PricePoint { return s.Points[len(s.Points)-1] }

// Fetch ranges accepted by providers
var ranges = map[string]func(time.Time) time.Time{
	"5d":  func(t time.Time) time.Time { return t.AddDate(0, 0, -5) },
	"1mo": func(t time.Time) time.Time { return t.AddDate(0, -1, 0) },
	"3mo": func(t time.Time) time.Time { return t.AddDate(0, -3, 0) },
	"6mo": func(t time.Time) time.Time { return t.AddDate(0, -6, 0) },
	"1y":  func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) },
	"2y":  func(t time.Time) time.Time { return t.AddDate(-2, 0, 0) },
	"5y":  func(t time.Time) time.Time { return t.AddDate(-5, 0, 0) },
}

// ValidRange reports whether rng is a known fetch range
func ValidRange(rng string) bool {
	_, ok := ranges[rng]
	return ok
}

// RangeStart returns the first calendar day covered by rng when it ends at end
func RangeStart(end time.Time, rng string) (time.Time, error) {
	fn, ok := ranges[rng]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown range %q", rng)
	}
	return fn(end), nil
}

// Asset is one universe row
type Asset struct {
	Symbol string `json:"symbol" yaml:"symbol" validate:"required"`
	Sector string `json:"sector" yaml:"sector" validate:"required"`
	Type   string `json:"type,omitempty" yaml:"type"`
}

// UnknownType is used when the universe does not name an asset type
const UnknownType = "Unknown"

// ReturnSet holds percentage returns per period. Invalid means "not enough history".
type ReturnSet struct {
	Daily   null.Float `json:"daily"`
	Weekly  null.Float `json:"weekly"`
	Monthly null.Float `json:"monthly"`
}

// Get returns the value for a period
func (r ReturnSet) Get(p Period) null.Float {
	switch p {
	case Daily:
		return r.Daily
	case Weekly:
		return r.Weekly
	case Monthly:
		return r.Monthly
	default:
		return null.Float{}
	}
}

// Usable reports whether the period holds a finite value.
// NaN and ±Inf are treated exactly like missing data.
func (r ReturnSet) Usable(p Period) bool {
	return IsFinite(r.Get(p))
}

// IsFinite reports whether f is valid and neither NaN nor infinite
func IsFinite(f null.Float) bool {
	return f.Valid && !math.IsNaN(f.Float64) && !math.IsInf(f.Float64, 0)
}

// Finite converts a raw float into a null.Float, mapping NaN/Inf to null
func Finite(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// AssetResult is the computed outcome for one asset in one pass
type AssetResult struct {
	Symbol  string    `json:"symbol"`
	Sector  string    `json:"sector"`
	Type    string    `json:"type"`
	Returns ReturnSet `json:"returns"`
}

// Outcome is the per-asset result of a pass: either Result or Err is set
type Outcome struct {
	Asset  Asset
	Result *AssetResult
	Err    error
}

// OK reports whether the asset was processed successfully
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil }

// SectorRankEntry is the mean return of one sector
type SectorRankEntry struct {
	Sector    string  `json:"sector"`
	AvgReturn float64 `json:"avg_return"`
	Count     int     `json:"count"`
}

// SectorMember is one asset inside a sector's top list
type SectorMember struct {
	Symbol string  `json:"symbol"`
	Return float64 `json:"return"`
	Type   string  `json:"type"`
}

// Report is everything published for one period
type Report struct {
	Period        Period
	TopMovers     []AssetResult
	BottomMovers  []AssetResult
	SectorRanking []SectorRankEntry
	TopBySector   map[string][]SectorMember
}

// SnapshotRow is one persisted asset row of a daily snapshot
type SnapshotRow struct {
	Date    time.Time
	Symbol  string
	Sector  string
	Daily   null.Float
	Weekly  null.Float
	Monthly null.Float
}

// SnapshotRowFrom builds a snapshot row from a result
func SnapshotRowFrom(date time.Time, r AssetResult) SnapshotRow {
	return SnapshotRow{
		Date:    date,
		Symbol:  r.Symbol,
		Sector:  r.Sector,
		Daily:   r.Returns.Daily,
		Weekly:  r.Returns.Weekly,
		Monthly: r.Returns.Monthly,
	}
}
