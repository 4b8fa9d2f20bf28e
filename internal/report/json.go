// Package report publishes computed rankings as JSON artifacts for the API
// and as a plain-text console summary.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/fileutil"
	"github.com/wonny/market-radar/pkg/logger"
)

// AllAssetsFile is the artifact holding every asset of the last pass
const AllAssetsFile = "all_assets.json"

// FileName returns the artifact name for a period
func FileName(p contracts.Period) string {
	return p.String() + ".json"
}

// Wire types. Every float goes through null.Float so NaN/Inf become null.
type (
	returnsDoc struct {
		Daily   null.Float `json:"daily"`
		Weekly  null.Float `json:"weekly"`
		Monthly null.Float `json:"monthly"`
	}

	assetDoc struct {
		Symbol  string     `json:"symbol"`
		Sector  string     `json:"sector"`
		Type    string     `json:"type"`
		Returns returnsDoc `json:"returns"`
	}

	sectorDoc struct {
		Sector    string     `json:"sector"`
		AvgReturn null.Float `json:"avg_return"`
		Count     int        `json:"count"`
	}

	memberDoc struct {
		Symbol string     `json:"symbol"`
		Return null.Float `json:"return"`
		Type   string     `json:"type"`
	}

	periodDoc struct {
		TopMovers     []assetDoc             `json:"top_movers"`
		BottomMovers  []assetDoc             `json:"bottom_movers"`
		SectorRanking []sectorDoc            `json:"sector_ranking"`
		TopBySector   map[string][]memberDoc `json:"top_by_sector"`
	}

	allAssetsDoc struct {
		UpdatedAt time.Time  `json:"updated_at"`
		Assets    []assetDoc `json:"assets"`
	}
)

// JSONPublisher writes one JSON file per period plus all_assets.json.
// Files are replaced atomically; the last writer wins.
// ⭐ SSOT: the JSON artifact format is defined here only
type JSONPublisher struct {
	dir    string
	logger *logger.Logger
}

// NewJSONPublisher creates a publisher writing into dir
func NewJSONPublisher(dir string, log *logger.Logger) *JSONPublisher {
	return &JSONPublisher{dir: dir, logger: log}
}

// Dir returns the output directory
func (p *JSONPublisher) Dir() string { return p.dir }

// PublishReport writes <period>.json
func (p *JSONPublisher) PublishReport(ctx context.Context, report contracts.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := periodDoc{
		TopMovers:     assetDocs(report.TopMovers),
		BottomMovers:  assetDocs(report.BottomMovers),
		SectorRanking: make([]sectorDoc, 0, len(report.SectorRanking)),
		TopBySector:   make(map[string][]memberDoc, len(report.TopBySector)),
	}
	for _, s := range report.SectorRanking {
		doc.SectorRanking = append(doc.SectorRanking, sectorDoc{
			Sector:    s.Sector,
			AvgReturn: contracts.Finite(s.AvgReturn),
			Count:     s.Count,
		})
	}
	for sector, members := range report.TopBySector {
		docs := make([]memberDoc, 0, len(members))
		for _, m := range members {
			docs = append(docs, memberDoc{Symbol: m.Symbol, Return: contracts.Finite(m.Return), Type: m.Type})
		}
		doc.TopBySector[sector] = docs
	}

	return p.write(FileName(report.Period), doc)
}

// PublishAssets writes all_assets.json
func (p *JSONPublisher) PublishAssets(ctx context.Context, updatedAt time.Time, results []contracts.AssetResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.write(AllAssetsFile, allAssetsDoc{
		UpdatedAt: updatedAt.UTC().Truncate(time.Second),
		Assets:    assetDocs(results),
	})
}

func (p *JSONPublisher) write(name string, v interface{}) error {
	path := filepath.Join(p.dir, name)

	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	p.logger.WithField("path", path).Debug("Artifact published")
	return nil
}

// ReadAssets loads the last published all_assets.json from dir.
// A missing file wraps os.ErrNotExist.
func ReadAssets(dir string) (time.Time, []contracts.AssetResult, error) {
	data, err := os.ReadFile(filepath.Join(dir, AllAssetsFile))
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("read %s: %w", AllAssetsFile, err)
	}

	var doc allAssetsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, nil, fmt.Errorf("decode %s: %w", AllAssetsFile, err)
	}

	results := make([]contracts.AssetResult, 0, len(doc.Assets))
	for _, a := range doc.Assets {
		results = append(results, contracts.AssetResult{
			Symbol: a.Symbol,
			Sector: a.Sector,
			Type:   a.Type,
			Returns: contracts.ReturnSet{
				Daily:   a.Returns.Daily,
				Weekly:  a.Returns.Weekly,
				Monthly: a.Returns.Monthly,
			},
		})
	}
	return doc.UpdatedAt, results, nil
}

func assetDocs(results []contracts.AssetResult) []assetDoc {
	docs := make([]assetDoc, 0, len(results))
	for _, r := range results {
		docs = append(docs, assetDoc{
			Symbol: r.Symbol,
			Sector: r.Sector,
			Type:   r.Type,
			Returns: returnsDoc{
				Daily:   finite(r.Returns.Daily),
				Weekly:  finite(r.Returns.Weekly),
				Monthly: finite(r.Returns.Monthly),
			},
		})
	}
	return docs
}

func finite(f null.Float) null.Float {
	if !contracts.IsFinite(f) {
		return null.Float{}
	}
	return f
}
