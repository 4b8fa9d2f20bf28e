// Package pipeline runs one pass: load the universe, fetch prices, compute
// returns, then persist the snapshot and publish rankings.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/market-radar/internal/contracts"
	"github.com/wonny/market-radar/internal/ranking"
	"github.com/wonny/market-radar/internal/report"
	"github.com/wonny/market-radar/internal/returns"
	"github.com/wonny/market-radar/internal/snapshot"
	"github.com/wonny/market-radar/pkg/config"
	"github.com/wonny/market-radar/pkg/logger"
)

// Options tune a pass
type Options struct {
	FetchRange   string
	Workers      int
	FetchTimeout time.Duration
	MoversLimit  int
	SectorTopN   int
}

// OptionsFromConfig reads pass options from the app config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FetchRange:   cfg.Pipeline.FetchRange,
		Workers:      cfg.Pipeline.Workers,
		FetchTimeout: cfg.Pipeline.FetchTimeout,
		MoversLimit:  cfg.Report.MoversLimit,
		SectorTopN:   cfg.Report.SectorTopN,
	}
}

// PassReport summarises one pass
type PassReport struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Assets        int
	Succeeded     int
	Failed        int
	SnapshotSaved bool
	PublishErrors int
}

// Duration returns the wall time of the pass
func (r *PassReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Pipeline wires the pass dependencies
// ⭐ SSOT: the pass sequence is defined here only
type Pipeline struct {
	universe  contracts.UniverseSource
	provider  contracts.PriceProvider
	store     contracts.SnapshotStore
	publisher contracts.ReportPublisher
	console   *report.Console
	logger    *logger.Logger
	opts      Options
	now       func() time.Time
}

// New creates a pipeline. store may be nil to skip snapshots.
func New(
	universe contracts.UniverseSource,
	provider contracts.PriceProvider,
	store contracts.SnapshotStore,
	publisher contracts.ReportPublisher,
	opts Options,
	log *logger.Logger,
) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if !contracts.ValidRange(opts.FetchRange) {
		if opts.FetchRange != "" {
			log.WithField("range", opts.FetchRange).Warn("Unknown fetch range, using 3mo")
		}
		opts.FetchRange = "3mo"
	}
	return &Pipeline{
		universe:  universe,
		provider:  provider,
		store:     store,
		publisher: publisher,
		logger:    log,
		opts:      opts,
		now:       time.Now,
	}
}

// WithConsole prints every published report to c
func (p *Pipeline) WithConsole(c *report.Console) *Pipeline {
	p.console = c
	return p
}

// Run executes one pass. It returns an error only when the universe cannot
// be loaded or ctx is cancelled before publishing; in both cases nothing is
// written. Per-asset and per-artifact failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context) (*PassReport, error) {
	rep := &PassReport{
		ID:        uuid.New().String(),
		StartedAt: p.now(),
	}
	log := p.logger.WithField("pass_id", rep.ID)

	assets, err := p.universe.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	rep.Assets = len(assets)

	log.WithField("assets", len(assets)).Info("Pass started")

	outcomes := p.fetchAll(ctx, assets)
	if err := ctx.Err(); err != nil {
		log.Warn("Pass cancelled before publishing")
		return nil, err
	}

	results := Collect(outcomes, log)
	rep.Succeeded = len(results)
	rep.Failed = len(outcomes) - len(results)

	p.saveSnapshot(ctx, log, rep, results)
	p.publish(ctx, log, rep, results)

	rep.FinishedAt = p.now()
	log.WithFields(map[string]interface{}{
		"succeeded":      rep.Succeeded,
		"failed":         rep.Failed,
		"publish_errors": rep.PublishErrors,
		"duration":       rep.Duration().String(),
	}).Info("Pass completed")

	return rep, nil
}

// fetchAll processes assets with bounded parallelism. outcomes[i] always
// belongs to assets[i].
func (p *Pipeline) fetchAll(ctx context.Context, assets []contracts.Asset) []contracts.Outcome {
	outcomes := make([]contracts.Outcome, len(assets))

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)

	for i, asset := range assets {
		g.Go(func() error {
			outcomes[i] = p.process(ctx, asset)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// process fetches and computes one asset
func (p *Pipeline) process(ctx context.Context, asset contracts.Asset) contracts.Outcome {
	out := contracts.Outcome{Asset: asset}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	fetchCtx := ctx
	if p.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.opts.FetchTimeout)
		defer cancel()
	}

	series, err := p.provider.Fetch(fetchCtx, asset.Symbol, p.opts.FetchRange)
	if err != nil {
		out.Err = fmt.Errorf("fetch: %w", err)
		return out
	}

	rs, err := returns.Calculate(series)
	if err != nil {
		out.Err = fmt.Errorf("calculate: %w", err)
		return out
	}

	out.Result = &contracts.AssetResult{
		Symbol:  asset.Symbol,
		Sector:  asset.Sector,
		Type:    asset.Type,
		Returns: rs,
	}
	return out
}

// Collect logs failed outcomes and returns the successful results in input order
func Collect(outcomes []contracts.Outcome, log *logger.Logger) []contracts.AssetResult {
	results := make([]contracts.AssetResult, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.OK() {
			log.WithFields(map[string]interface{}{
				"symbol": o.Asset.Symbol,
				"sector": o.Asset.Sector,
			}).WithError(o.Err).Warn("Asset skipped")
			continue
		}
		results = append(results, *o.Result)
	}
	return results
}

func (p *Pipeline) saveSnapshot(ctx context.Context, log *logger.Logger, rep *PassReport, results []contracts.AssetResult) {
	if p.store == nil {
		return
	}

	date := rep.StartedAt
	rows := make([]contracts.SnapshotRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, contracts.SnapshotRowFrom(date, r))
	}

	if err := p.store.Save(ctx, date, rows); err != nil {
		log.WithError(err).Error("Failed to save snapshot")
		return
	}
	rep.SnapshotSaved = true
}

func (p *Pipeline) publish(ctx context.Context, log *logger.Logger, rep *PassReport, results []contracts.AssetResult) {
	for _, period := range contracts.Periods {
		r := ranking.Build(results, period, p.opts.MoversLimit, p.opts.SectorTopN)

		if err := p.publisher.PublishReport(ctx, r); err != nil {
			rep.PublishErrors++
			log.WithField("period", period.String()).WithError(err).Error("Failed to publish report")
		}

		if p.console != nil {
			p.console.Report(r)
		}
	}

	if err := p.publisher.PublishAssets(ctx, rep.StartedAt, results); err != nil {
		rep.PublishErrors++
		log.WithError(err).Error("Failed to publish asset list")
	}

	if p.console != nil {
		p.printChanges(ctx, log)
	}
}

// printChanges prints day-over-day movers when the store keeps history
func (p *Pipeline) printChanges(ctx context.Context, log *logger.Logger) {
	reader, ok := p.store.(snapshot.Reader)
	if !ok {
		return
	}

	yesterday, today, found, err := snapshot.LoadLastTwo(ctx, reader)
	if err != nil {
		log.WithError(err).Warn("Failed to load snapshot history")
		return
	}
	if found {
		p.console.Changes(snapshot.DailyChanges(yesterday, today, snapshot.DefaultChangesLimit))
	}
}
