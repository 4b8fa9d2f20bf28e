package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/internal/pipeline"
	"github.com/wonny/market-radar/internal/scheduler"
	"github.com/wonny/market-radar/pkg/logger"
)

type stubRunner struct {
	rep   *pipeline.PassReport
	err   error
	calls atomic.Int32
}

func (s *stubRunner) Run(context.Context) (*pipeline.PassReport, error) {
	s.calls.Add(1)
	return s.rep, s.err
}

func TestPipelineJob(t *testing.T) {
	runner := &stubRunner{rep: &pipeline.PassReport{ID: "x", Assets: 3, Succeeded: 3}}
	job := NewPipelineJob(runner, 15*time.Minute, logger.Nop())

	assert.Equal(t, PipelineJobName, job.Name())
	assert.Equal(t, "@every 15m0s", job.Schedule())
	assert.Equal(t, 0, job.MaxRetries())
	require.NoError(t, job.Run(context.Background()))
}

func TestPipelineJob_FailureIsNotRetried(t *testing.T) {
	runner := &stubRunner{err: errors.New("universe unavailable")}
	job := NewPipelineJob(runner, 30*time.Second, logger.Nop())

	s := scheduler.New(logger.Nop()).WithRetry(3, time.Millisecond)
	require.NoError(t, s.AddJob(job))

	err := s.RunJobSync(PipelineJobName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "universe unavailable")
	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestStartPipeline_FirstPassWaitsForTick(t *testing.T) {
	runner := &stubRunner{rep: &pipeline.PassReport{ID: "x"}}
	s := scheduler.New(logger.Nop())
	require.NoError(t, s.AddJob(NewPipelineJob(runner, 2*time.Second, logger.Nop())))

	require.NoError(t, StartPipeline(s, false))
	defer s.Stop()

	// @every 2s cannot fire this early
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, runner.calls.Load())
	stats := s.GetJobStats()[PipelineJobName]
	assert.Zero(t, stats.TotalRuns)
	assert.False(t, stats.Running)
	require.NotNil(t, stats.NextRun)

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 4*time.Second, 20*time.Millisecond)
}

func TestStartPipeline_RunOnStart(t *testing.T) {
	runner := &stubRunner{rep: &pipeline.PassReport{ID: "x"}}
	s := scheduler.New(logger.Nop())
	require.NoError(t, s.AddJob(NewPipelineJob(runner, time.Hour, logger.Nop())))

	require.NoError(t, StartPipeline(s, true))
	defer s.Stop()

	assert.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

type stubPruner struct {
	before  time.Time
	removed int
	err     error
	calls   int
}

func (p *stubPruner) Prune(_ context.Context, before time.Time) (int, error) {
	p.calls++
	p.before = before
	return p.removed, p.err
}

func TestSnapshotRetentionJob(t *testing.T) {
	pruner := &stubPruner{removed: 4}
	job := NewSnapshotRetentionJob(pruner, 30, logger.Nop())
	job.now = func() time.Time { return time.Date(2024, 3, 31, 0, 30, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, pruner.calls)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC), pruner.before)
}

func TestSnapshotRetentionJob_Disabled(t *testing.T) {
	pruner := &stubPruner{}
	job := NewSnapshotRetentionJob(pruner, 0, logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, pruner.calls)
}

func TestSnapshotRetentionJob_Error(t *testing.T) {
	pruner := &stubPruner{err: errors.New("permission denied")}
	job := NewSnapshotRetentionJob(pruner, 7, logger.Nop())

	assert.Error(t, job.Run(context.Background()))
}

type stubCleaner struct{ removed int }

func (s *stubCleaner) CleanStale() int { return s.removed }

func TestCacheCleanupJob(t *testing.T) {
	job := NewCacheCleanupJob(&stubCleaner{removed: 3}, logger.Nop())

	assert.Equal(t, CacheCleanupJobName, job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	require.NoError(t, job.Run(context.Background()))

	sched := scheduler.New(logger.Nop())
	require.NoError(t, sched.AddJob(job))
}
