package report

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/logger"
)

func sampleReport() contracts.Report {
	return contracts.Report{
		Period: contracts.Daily,
		TopMovers: []contracts.AssetResult{
			{Symbol: "AAA", Sector: "Tech", Type: "Stock", Returns: contracts.ReturnSet{
				Daily:   null.FloatFrom(2.5),
				Weekly:  null.FloatFrom(math.NaN()),
				Monthly: null.Float{},
			}},
		},
		BottomMovers: []contracts.AssetResult{},
		SectorRanking: []contracts.SectorRankEntry{
			{Sector: "Tech", AvgReturn: 2.5, Count: 1},
			{Sector: "Broken", AvgReturn: math.Inf(1), Count: 1},
		},
		TopBySector: map[string][]contracts.SectorMember{
			"Tech": {{Symbol: "AAA", Return: 2.5, Type: "Stock"}},
		},
	}
}

func TestPublishReport(t *testing.T) {
	dir := t.TempDir()
	p := NewJSONPublisher(dir, logger.Nop())

	require.NoError(t, p.PublishReport(context.Background(), sampleReport()))

	data, err := os.ReadFile(filepath.Join(dir, "daily.json"))
	require.NoError(t, err)

	text := string(data)
	assert.NotContains(t, text, "NaN")
	assert.NotContains(t, text, "Inf")
	assert.True(t, strings.HasPrefix(text, "{\n  \""), "indented output")

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.ElementsMatch(t, []string{"top_movers", "bottom_movers", "sector_ranking", "top_by_sector"}, keys(doc))
	assert.JSONEq(t, `[]`, string(doc["bottom_movers"]))
	assert.JSONEq(t, `[{"symbol":"AAA","sector":"Tech","type":"Stock","returns":{"daily":2.5,"weekly":null,"monthly":null}}]`,
		string(doc["top_movers"]))
	assert.JSONEq(t, `[{"sector":"Tech","avg_return":2.5,"count":1},{"sector":"Broken","avg_return":null,"count":1}]`,
		string(doc["sector_ranking"]))
	assert.JSONEq(t, `{"Tech":[{"symbol":"AAA","return":2.5,"type":"Stock"}]}`, string(doc["top_by_sector"]))
}

func TestPublishReport_EmptyCollections(t *testing.T) {
	dir := t.TempDir()
	p := NewJSONPublisher(dir, logger.Nop())

	require.NoError(t, p.PublishReport(context.Background(), contracts.Report{Period: contracts.Weekly}))

	data, err := os.ReadFile(filepath.Join(dir, "weekly.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"top_movers":[],"bottom_movers":[],"sector_ranking":[],"top_by_sector":{}}`, string(data))
}

func TestPublishReport_NoHTMLEscaping(t *testing.T) {
	dir := t.TempDir()
	p := NewJSONPublisher(dir, logger.Nop())

	rep := contracts.Report{
		Period:        contracts.Monthly,
		SectorRanking: []contracts.SectorRankEntry{{Sector: "R&D <Labs>", AvgReturn: 1, Count: 1}},
	}
	require.NoError(t, p.PublishReport(context.Background(), rep))

	data, err := os.ReadFile(filepath.Join(dir, "monthly.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "R&D <Labs>")
}

func TestPublishAssets(t *testing.T) {
	dir := t.TempDir()
	p := NewJSONPublisher(dir, logger.Nop())
	at := time.Date(2024, 1, 19, 21, 0, 0, 500, time.UTC)

	err := p.PublishAssets(context.Background(), at, []contracts.AssetResult{
		{Symbol: "AAA", Sector: "Tech", Type: "Stock", Returns: contracts.ReturnSet{Daily: null.FloatFrom(math.Inf(-1))}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, AllAssetsFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"updated_at":"2024-01-19T21:00:00Z","assets":[
		{"symbol":"AAA","sector":"Tech","type":"Stock","returns":{"daily":null,"weekly":null,"monthly":null}}]}`, string(data))
}

func TestPublish_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	p := NewJSONPublisher(dir, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.PublishReport(ctx, sampleReport()), context.Canceled)
	_, err := os.Stat(filepath.Join(dir, "daily.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestReadAssets(t *testing.T) {
	dir := t.TempDir()
	p := NewJSONPublisher(dir, logger.Nop())
	at := time.Date(2024, 1, 19, 21, 0, 0, 0, time.UTC)

	require.NoError(t, p.PublishAssets(context.Background(), at, []contracts.AssetResult{
		{Symbol: "AAA", Sector: "Tech", Type: "Stock", Returns: contracts.ReturnSet{Daily: null.FloatFrom(1.5)}},
		{Symbol: "BBB", Sector: "Energy", Type: "ETF"},
	}))

	updated, results, err := ReadAssets(dir)
	require.NoError(t, err)
	assert.True(t, at.Equal(updated))
	require.Len(t, results, 2)
	assert.Equal(t, "AAA", results[0].Symbol)
	assert.Equal(t, 1.5, results[0].Returns.Daily.Float64)
	assert.False(t, results[1].Returns.Daily.Valid)
}

func TestReadAssets_Missing(t *testing.T) {
	_, _, err := ReadAssets(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
