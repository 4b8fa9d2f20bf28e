// Package jobs holds the scheduled jobs of the radar.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/market-radar/internal/pipeline"
	"github.com/wonny/market-radar/internal/scheduler"
	"github.com/wonny/market-radar/pkg/logger"
)

// PipelineJobName is the registered name of the pass job
const PipelineJobName = "market_pipeline"

// PassRunner runs one pipeline pass
type PassRunner interface {
	Run(ctx context.Context) (*pipeline.PassReport, error)
}

// PipelineJob runs a full pass on a fixed interval
// ⭐ SSOT: the pass schedule is defined here only
type PipelineJob struct {
	runner   PassRunner
	interval time.Duration
	logger   *logger.Logger
}

// NewPipelineJob creates a new pipeline job
func NewPipelineJob(runner PassRunner, interval time.Duration, log *logger.Logger) *PipelineJob {
	return &PipelineJob{
		runner:   runner,
		interval: interval,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return PipelineJobName
}

// Schedule returns the cron schedule (fixed interval).
// "@every" first fires one interval after the scheduler starts.
func (j *PipelineJob) Schedule() string {
	return "@every " + j.interval.String()
}

// MaxRetries disables scheduler retries; a failed pass is retried on the next tick
func (j *PipelineJob) MaxRetries() int {
	return 0
}

// Run executes one pass
func (j *PipelineJob) Run(ctx context.Context) error {
	rep, err := j.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline pass failed: %w", err)
	}

	if rep.Succeeded == 0 && rep.Assets > 0 {
		j.logger.WithFields(map[string]interface{}{
			"pass_id": rep.ID,
			"assets":  rep.Assets,
		}).Warn("Pass produced no results")
	}

	return nil
}

// StartPipeline starts s and, with runOnStart, triggers a pass right away.
// Without it the first pass waits for the first tick.
func StartPipeline(s *scheduler.Scheduler, runOnStart bool) error {
	s.Start()
	if !runOnStart {
		return nil
	}
	return s.RunJob(PipelineJobName)
}
