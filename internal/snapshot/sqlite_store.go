package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	_ "modernc.org/sqlite"

	"github.com/wonny/market-radar/internal/contracts"
)

// SQLiteStore keeps snapshots in a local SQLite database
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL keeps API reads from blocking the pass that writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			snap_date TEXT    NOT NULL,
			symbol    TEXT    NOT NULL,
			position  INTEGER NOT NULL,
			sector    TEXT    NOT NULL,
			daily     REAL,
			weekly    REAL,
			monthly   REAL,
			PRIMARY KEY (snap_date, symbol)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(snap_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Save replaces every row stored for date
func (s *SQLiteStore) Save(ctx context.Context, date time.Time, rows []contracts.SnapshotRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	key := day(date).Format(DateLayout)
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE snap_date = ?`, key); err != nil {
		return fmt.Errorf("clear %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO snapshots
		(snap_date, symbol, position, sector, daily, weekly, monthly)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, key, r.Symbol, i, r.Sector,
			sanitize(r.Daily), sanitize(r.Weekly), sanitize(r.Monthly)); err != nil {
			return fmt.Errorf("insert %s: %w", r.Symbol, err)
		}
	}

	return tx.Commit()
}

// Dates implements Reader
func (s *SQLiteStore) Dates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT snap_date FROM snapshots ORDER BY snap_date`)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		d, err := time.Parse(DateLayout, key)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", key, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Load implements Reader
func (s *SQLiteStore) Load(ctx context.Context, date time.Time) ([]contracts.SnapshotRow, error) {
	d := day(date)
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, sector, daily, weekly, monthly
		FROM snapshots WHERE snap_date = ? ORDER BY position`, d.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.SnapshotRow, 0)
	for rows.Next() {
		r := contracts.SnapshotRow{Date: d}
		if err := rows.Scan(&r.Symbol, &r.Sector, &r.Daily, &r.Weekly, &r.Monthly); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune implements Pruner
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE snap_date < ?`, day(before).Format(DateLayout))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// sanitize stores non-finite values as NULL
func sanitize(f null.Float) null.Float {
	if !contracts.IsFinite(f) {
		return null.Float{}
	}
	return f
}
