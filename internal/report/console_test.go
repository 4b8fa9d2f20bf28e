package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/snapshot"
)

func TestConsole_Report(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Report(contracts.Report{
		Period: contracts.Daily,
		TopMovers: []contracts.AssetResult{
			{Symbol: "AAA", Sector: "Tech", Returns: contracts.ReturnSet{Daily: null.FloatFrom(2.345)}},
		},
		SectorRanking: []contracts.SectorRankEntry{{Sector: "Tech", AvgReturn: 1.005, Count: 2}},
	})

	out := buf.String()
	assert.Contains(t, out, "Top Movers Daily\n----------------")
	assert.Contains(t, out, "Bottom Movers Daily")
	assert.Contains(t, out, "AAA      | Tech         |    2.35%")
	assert.Contains(t, out, " 1. Tech            +1.01%  (2 assets)")
}

func TestConsole_Changes(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Changes([]snapshot.Change{
		{Symbol: "AAA", Sector: "Tech", Delta: 3},
		{Symbol: "BBB", Sector: "Tech", Delta: -1.5},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "AAA      | Tech         | +3.00%", lines[2])
	assert.Equal(t, "BBB      | Tech         | -1.50%", lines[3])
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0.00", percent(0, true))
	assert.Equal(t, "-0.13", percent(-0.125, false))
	assert.Equal(t, "n/a", percent(math.NaN(), true))
}
