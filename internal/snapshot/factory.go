package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/market-radar/pkg/config"
	"github.com/wonny/market-radar/pkg/logger"
)

// Open builds the configured backend. CSV files are always written; a
// database backend becomes the read source with CSV as a second sink.
// The returned close func releases backend resources (not the pool).
func Open(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (Store, func(), error) {
	csvStore := NewCSVStore(cfg.Snapshot.Dir, log)
	noop := func() {}

	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendCSV, "":
		return csvStore, noop, nil

	case config.SnapshotBackendSQLite:
		s, err := NewSQLiteStore(cfg.Snapshot.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := s.Close(); err != nil {
				log.WithError(err).Warn("Failed to close sqlite snapshot store")
			}
		}
		return NewMulti(s, csvStore), closeFn, nil

	case config.SnapshotBackendPostgres:
		if pool == nil {
			return nil, noop, fmt.Errorf("postgres snapshot backend requires a database pool")
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			return nil, noop, err
		}
		return NewMulti(s, csvStore), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}
