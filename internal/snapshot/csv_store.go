package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/pkg/fileutil"
	"github.com/wonny/market-radar/pkg/logger"
)

const (
	filePrefix = "market_"
	fileSuffix = ".csv"
)

var csvHeader = []string{"symbol", "sector", "daily", "weekly", "monthly"}

// CSVStore keeps one market_YYYY-MM-DD.csv file per day.
// Saving twice on the same day replaces that day's file.
type CSVStore struct {
	dir    string
	logger *logger.Logger
}

// NewCSVStore creates a file store rooted at dir
func NewCSVStore(dir string, log *logger.Logger) *CSVStore {
	return &CSVStore{dir: dir, logger: log}
}

// Path returns the file used for date
func (s *CSVStore) Path(date time.Time) string {
	return filepath.Join(s.dir, filePrefix+day(date).Format(DateLayout)+fileSuffix)
}

// Save implements contracts.SnapshotStore
func (s *CSVStore) Save(ctx context.Context, date time.Time, rows []contracts.SnapshotRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(date)
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, r := range rows {
			rec := []string{r.Symbol, r.Sector, formatFloat(r.Daily), formatFloat(r.Weekly), formatFloat(r.Monthly)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path": path,
		"rows": len(rows),
	}).Debug("Snapshot saved")
	return nil
}

// Dates implements Reader
func (s *CSVStore) Dates(ctx context.Context) ([]time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []time.Time{}, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		if d, ok := parseFileName(e.Name()); ok && !e.IsDir() {
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Load implements Reader
func (s *CSVStore) Load(ctx context.Context, date time.Time) ([]contracts.SnapshotRow, error) {
	path := s.Path(date)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read snapshot header %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	rows := make([]contracts.SnapshotRow, 0)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", path, err)
		}
		rows = append(rows, contracts.SnapshotRow{
			Date:    day(date),
			Symbol:  field(rec, "symbol"),
			Sector:  field(rec, "sector"),
			Daily:   parseFloat(field(rec, "daily")),
			Weekly:  parseFloat(field(rec, "weekly")),
			Monthly: parseFloat(field(rec, "monthly")),
		})
	}

	return rows, nil
}

// Prune implements Pruner
func (s *CSVStore) Prune(ctx context.Context, before time.Time) (int, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := day(before)
	removed := 0
	for _, d := range dates {
		if !d.Before(cutoff) {
			break
		}
		if err := os.Remove(s.Path(d)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove snapshot %s: %w", s.Path(d), err)
		}
		removed++
	}
	return removed, nil
}

func parseFileName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// formatFloat writes missing or non-finite values as an empty cell
func formatFloat(f null.Float) string {
	if !contracts.IsFinite(f) {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}

func parseFloat(s string) null.Float {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return null.Float{}
	}
	return contracts.Finite(v)
}
