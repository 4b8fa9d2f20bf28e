package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/market-radar/internal/contracts"
)

// PostgresStore keeps snapshots in market.snapshots
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema and table when missing
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS market`,
		`CREATE TABLE IF NOT EXISTS market.snapshots (
			snap_date  DATE             NOT NULL,
			symbol     TEXT             NOT NULL,
			position   INTEGER          NOT NULL,
			sector     TEXT             NOT NULL,
			daily      DOUBLE PRECISION,
			weekly     DOUBLE PRECISION,
			monthly    DOUBLE PRECISION,
			created_at TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			PRIMARY KEY (snap_date, symbol)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_date ON market.snapshots(snap_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate snapshots: %w", err)
		}
	}
	return nil
}

// Save replaces every row stored for date
func (s *PostgresStore) Save(ctx context.Context, date time.Time, rows []contracts.SnapshotRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d := day(date)
	if _, err := tx.Exec(ctx, `DELETE FROM market.snapshots WHERE snap_date = $1`, d); err != nil {
		return fmt.Errorf("failed to clear snapshot %s: %w", d.Format(DateLayout), err)
	}

	batch := &pgx.Batch{}
	for i, r := range rows {
		batch.Queue(`
			INSERT INTO market.snapshots (snap_date, symbol, position, sector, daily, weekly, monthly)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (snap_date, symbol) DO UPDATE SET
				position = EXCLUDED.position,
				sector   = EXCLUDED.sector,
				daily    = EXCLUDED.daily,
				weekly   = EXCLUDED.weekly,
				monthly  = EXCLUDED.monthly
		`, d, r.Symbol, i, r.Sector,
			sanitize(r.Daily), sanitize(r.Weekly), sanitize(r.Monthly))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert snapshot rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Dates implements Reader
func (s *PostgresStore) Dates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT snap_date FROM market.snapshots ORDER BY snap_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot dates: %w", err)
	}

	dates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (time.Time, error) {
		var d time.Time
		err := row.Scan(&d)
		return day(d), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot dates: %w", err)
	}
	return dates, nil
}

// Load implements Reader
func (s *PostgresStore) Load(ctx context.Context, date time.Time) ([]contracts.SnapshotRow, error) {
	query := `
		SELECT snap_date, symbol, sector, daily, weekly, monthly
		FROM market.snapshots
		WHERE snap_date = $1
		ORDER BY position
	`

	rows, err := s.pool.Query(ctx, query, day(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.SnapshotRow, 0)
	for rows.Next() {
		var r contracts.SnapshotRow
		if err := rows.Scan(&r.Date, &r.Symbol, &r.Sector, &r.Daily, &r.Weekly, &r.Monthly); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Date = day(r.Date)
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Prune implements Pruner
func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM market.snapshots WHERE snap_date < $1`, day(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
