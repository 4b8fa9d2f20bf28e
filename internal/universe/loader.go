// Package universe loads the list of tracked assets from a CSV or YAML file.
package universe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/logger"
)

// ErrUniverseUnavailable marks a universe that cannot be read at all.
// A pass must not publish anything when it sees this error.
var ErrUniverseUnavailable = errors.New("universe unavailable")

// Loader reads the universe file on every Load call
// ⭐ SSOT: universe parsing lives here only
type Loader struct {
	path     string
	validate *validator.Validate
	logger   *logger.Logger
}

// NewLoader creates a loader for path (.csv, .yaml or .yml)
func NewLoader(path string, log *logger.Logger) *Loader {
	return &Loader{
		path:     path,
		validate: validator.New(),
		logger:   log,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string { return l.path }

// Load parses the universe file. Invalid rows are skipped with a warning and
// duplicate symbols keep their first occurrence.
func (l *Loader) Load(ctx context.Context) ([]contracts.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUniverseUnavailable, err)
	}
	defer f.Close()

	var raw []contracts.Asset
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".yaml", ".yml":
		raw, err = parseYAML(f)
	default:
		raw, err = parseCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUniverseUnavailable, l.path, err)
	}

	assets := l.clean(raw)

	l.logger.WithFields(map[string]interface{}{
		"file":    l.path,
		"rows":    len(raw),
		"assets":  len(assets),
		"skipped": len(raw) - len(assets),
	}).Debug("Universe loaded")

	return assets, nil
}

// clean trims, validates and de-duplicates rows
func (l *Loader) clean(raw []contracts.Asset) []contracts.Asset {
	assets := make([]contracts.Asset, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, a := range raw {
		a.Symbol = strings.TrimSpace(a.Symbol)
		a.Sector = strings.TrimSpace(a.Sector)
		a.Type = strings.TrimSpace(a.Type)

		if err := l.validate.Struct(a); err != nil {
			l.logger.WithFields(map[string]interface{}{
				"row":    i + 1,
				"symbol": a.Symbol,
			}).WithError(err).Warn("Skipping invalid universe row")
			continue
		}

		if seen[a.Symbol] {
			l.logger.WithField("symbol", a.Symbol).Warn("Skipping duplicate universe symbol")
			continue
		}
		seen[a.Symbol] = true

		if a.Type == "" {
			a.Type = contracts.UnknownType
		}
		assets = append(assets, a)
	}

	return assets
}

// parseCSV reads a header row (symbol, sector and optional type, any order)
// followed by data rows.
func parseCSV(r io.Reader) ([]contracts.Asset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{"symbol": -1, "sector": -1, "type": -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	if cols["symbol"] < 0 || cols["sector"] < 0 {
		return nil, fmt.Errorf("header must contain symbol and sector columns")
	}

	field := func(rec []string, name string) string {
		i := cols[name]
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var assets []contracts.Asset
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		assets = append(assets, contracts.Asset{
			Symbol: field(rec, "symbol"),
			Sector: field(rec, "sector"),
			Type:   field(rec, "type"),
		})
	}

	return assets, nil
}

// parseYAML accepts either a bare list of assets or a document with an
// "assets" key.
func parseYAML(r io.Reader) ([]contracts.Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var list []contracts.Asset
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc struct {
		Assets []contracts.Asset `yaml:"assets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Assets, nil
}
