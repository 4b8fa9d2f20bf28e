package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/snapshot"
)

// Console prints rankings as fixed-width text
type Console struct {
	w io.Writer
}

// NewConsole creates a printer writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Ranking prints one mover list
func (c *Console) Ranking(title string, results []contracts.AssetResult, period contracts.Period) {
	fmt.Fprintf(c.w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))

	for _, r := range results {
		fmt.Fprintf(c.w, "%-8s | %-12s | %7s%%\n", r.Symbol, r.Sector, percent(r.Returns.Get(period).Float64, false))
	}
}

// Sectors prints a sector ranking
func (c *Console) Sectors(title string, entries []contracts.SectorRankEntry) {
	bar := strings.Repeat("=", len(title))
	fmt.Fprintf(c.w, "\n%s\n%s\n%s\n", bar, title, bar)

	for i, e := range entries {
		fmt.Fprintf(c.w, "%2d. %-15s %s%%  (%d assets)\n", i+1, e.Sector, percent(e.AvgReturn, true), e.Count)
	}
}

// Changes prints the day-over-day movers
func (c *Console) Changes(changes []snapshot.Change) {
	title := "Changes vs previous day"
	fmt.Fprintf(c.w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))

	for _, ch := range changes {
		fmt.Fprintf(c.w, "%-8s | %-12s | %s%%\n", ch.Symbol, ch.Sector, percent(ch.Delta, true))
	}
}

// Report prints every section of a period report
func (c *Console) Report(rep contracts.Report) {
	label := strings.ToUpper(rep.Period.String()[:1]) + rep.Period.String()[1:]
	c.Ranking("Top Movers "+label, rep.TopMovers, rep.Period)
	c.Ranking("Bottom Movers "+label, rep.BottomMovers, rep.Period)
	c.Sectors("Sector Ranking "+label, rep.SectorRanking)
}

// percent rounds half away from zero to two decimals
func percent(v float64, signed bool) string {
	if !contracts.IsFinite(contracts.Finite(v)) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2)
	if signed && d.IsPositive() {
		s = "+" + s
	}
	return s
}
