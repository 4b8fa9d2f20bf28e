package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/market-radar/internal/api"
	"github.com/wonny/market-radar/internal/api/handlers"
	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/external/naver"
	"github.com/wonny/market-radar/internal/external/provider"
	"github.com/wonny/market-radar/internal/external/yahoo"
	"github.com/wonny/market-radar/internal/pipeline"
	"github.com/wonny/market-radar/internal/report"
	"github.com/wonny/market-radar/internal/scheduler"
	"github.com/wonny/market-radar/internal/scheduler/jobs"
	"github.com/wonny/market-radar/internal/snapshot"
	"github.com/wonny/market-radar/internal/universe"
	"github.com/wonny/market-radar/pkg/config"
	"github.com/wonny/market-radar/pkg/database"
	"github.com/wonny/market-radar/pkg/httputil"
	"github.com/wonny/market-radar/pkg/logger"
	"github.com/wonny/market-radar/pkg/redis"
)

// Redis key prefix shared by the cache and the rate limiter
const redisPrefix = "radar"

// app holds every wired dependency of one CLI invocation
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	store     snapshot.Store
	universe  *universe.Loader
	provider  *provider.Router
	cache     *provider.Cache
	publisher *report.JSONPublisher
	pipeline  *pipeline.Pipeline

	closers []func()
}

// newApp loads config and wires storage, providers and the pipeline
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 3. Connect to database (postgres snapshot backend only)
	if cfg.Snapshot.Backend == config.SnapshotBackendPostgres {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		log.Info("Connected to database")
	}

	// 4. Connect to Redis (no-op client when disabled)
	rc, err := redis.New(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	a.closers = append(a.closers, func() { rc.Close() })

	// 5. Snapshot store
	store, closeStore, err := snapshot.Open(ctx, cfg, a.pool(), log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	// 6. Price providers
	a.provider, err = a.newProvider()
	if err != nil {
		a.close()
		return nil, err
	}
	if cfg.PriceCacheTTL > 0 {
		a.cache = provider.NewCache(a.provider, cfg.PriceCacheTTL, log)
	}

	// 7. Universe + publisher + pipeline
	a.universe = universe.NewLoader(cfg.Pipeline.UniverseFile, log)
	a.publisher = report.NewJSONPublisher(cfg.Report.OutputDir, log)
	a.pipeline = pipeline.New(a.universe, a.provider, a.store, a.publisher, pipeline.OptionsFromConfig(cfg), log)
	if cfg.Report.Console {
		a.pipeline.WithConsole(report.NewConsole(os.Stdout))
	}

	return a, nil
}

func (a *app) newProvider() (*provider.Router, error) {
	cfg := a.cfg

	yahooHTTP := a.httpClient("yahoo", cfg.Yahoo.RateLimit)
	naverHTTP := a.httpClient("naver", cfg.Naver.RateLimit)

	yahooClient := yahoo.NewClient(yahooHTTP, a.log, cfg.Yahoo.BaseURL)
	naverClient := naver.NewClient(naverHTTP, a.log, cfg.Naver.BaseURL, cfg.Naver.ChartURL)

	router, err := provider.NewRouter(cfg.Pipeline.PriceSource, yahooClient, naverClient)
	if err != nil {
		return nil, fmt.Errorf("create price provider: %w", err)
	}
	return router, nil
}

// httpClient builds a retrying client limited per source. The limit is
// shared through Redis when it is enabled, otherwise it is process local.
func (a *app) httpClient(source string, perSecond int) *httputil.Client {
	c := httputil.New(a.cfg, a.log)
	if perSecond <= 0 {
		return c
	}
	if a.redis.Enabled() {
		return c.WithRateLimiter(redis.NewRateLimiter(a.redis, redisPrefix), redis.PerSecond(source, perSecond))
	}
	return c.WithLocalRateLimit(perSecond)
}

// newScheduler registers the pass job and, when configured, snapshot retention
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewPipelineJob(a.pipeline, a.cfg.Scheduler.Interval, a.log)); err != nil {
		return nil, fmt.Errorf("add pipeline job: %w", err)
	}
	if a.cache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.cache, a.log)); err != nil {
			return nil, fmt.Errorf("add cache cleanup job: %w", err)
		}
	}
	if a.cfg.Snapshot.RetentionDays > 0 {
		if err := sched.AddJob(jobs.NewSnapshotRetentionJob(a.store, a.cfg.Snapshot.RetentionDays, a.log)); err != nil {
			return nil, fmt.Errorf("add retention job: %w", err)
		}
	}

	return sched, nil
}

// newRouter builds the HTTP API. sched may be nil.
func (a *app) newRouter(sched *scheduler.Scheduler) http.Handler {
	var cache *redis.Cache
	if a.redis.Enabled() {
		cache = redis.NewCache(a.redis, redisPrefix)
	}

	// On-demand detail reads go through the in-process cache; passes always fetch fresh
	var prices contracts.PriceProvider = a.provider
	if a.cache != nil {
		prices = a.cache
	}

	h := api.Handlers{
		Market:  handlers.NewMarketHandler(a.cfg.Report.OutputDir, a.log),
		Asset:   handlers.NewAssetHandler(prices, a.universe, cache, a.cfg.Report.OutputDir, a.log),
		Changes: handlers.NewChangesHandler(a.store, a.log),
	}
	if sched != nil {
		h.Scheduler = handlers.NewSchedulerHandler(sched)
	}

	return api.NewRouter(h, a.log)
}

func (a *app) pool() *pgxpool.Pool {
	if a.db == nil {
		return nil
	}
	return a.db.Pool
}

// close releases resources in reverse order of acquisition
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
