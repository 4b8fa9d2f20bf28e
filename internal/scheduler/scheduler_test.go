package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/market-radar/pkg/logger"
)

type funcJob struct {
	name     string
	schedule string
	run      func(ctx context.Context) error
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Schedule() string              { return j.schedule }
func (j *funcJob) Run(ctx context.Context) error { return j.run(ctx) }

type retryJob struct {
	*funcJob
	max int
}

func (j retryJob) MaxRetries() int { return j.max }

func newScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, time.Millisecond)
}

func TestAddJob(t *testing.T) {
	s := newScheduler()
	job := &funcJob{name: "a", schedule: "@every 1h", run: func(context.Context) error { return nil }}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name")

	bad := &funcJob{name: "b", schedule: "not a schedule", run: job.run}
	assert.Error(t, s.AddJob(bad))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRunJobSync_RecordsHistory(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&funcJob{name: "ok", schedule: "@daily", run: func(context.Context) error { return nil }}))

	require.NoError(t, s.RunJobSync("ok"))

	h, err := s.GetJobHistory("ok")
	require.NoError(t, err)
	require.Len(t, h.Results, 1)
	assert.True(t, h.Results[0].Success)
	assert.Equal(t, 1, h.Results[0].Attempts)

	assert.ErrorIs(t, s.RunJobSync("missing"), ErrJobNotFound)
}

func TestRunJobSync_Retries(t *testing.T) {
	s := newScheduler()
	var calls int32
	boom := errors.New("boom")
	require.NoError(t, s.AddJob(&funcJob{name: "flaky", schedule: "@daily", run: func(context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return boom
		}
		return nil
	}}))

	require.NoError(t, s.RunJobSync("flaky"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	h, _ := s.GetJobHistory("flaky")
	assert.Equal(t, 3, h.Results[0].Attempts)
}

func TestRunJobSync_RetrierOverride(t *testing.T) {
	s := newScheduler()
	var calls int32
	boom := errors.New("universe missing")
	job := retryJob{funcJob: &funcJob{name: "pass", schedule: "@daily", run: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return boom
	}}}
	require.NoError(t, s.AddJob(job))

	err := s.RunJobSync("pass")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retries")

	stats := s.GetJobStats()["pass"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, "universe missing", stats.LastError)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJob_NoOverlap(t *testing.T) {
	s := newScheduler()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, s.AddJob(&funcJob{name: "slow", schedule: "@daily", run: func(context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	}}))

	require.NoError(t, s.RunJob("slow"))
	<-started

	assert.ErrorIs(t, s.RunJobSync("slow"), ErrJobRunning)
	assert.True(t, s.GetJobStats()["slow"].Running)

	close(release)
	s.Stop()

	h, _ := s.GetJobHistory("slow")
	assert.Len(t, h.Results, 1)
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := newScheduler()
	started := make(chan struct{})
	var sawCancel atomic.Bool
	require.NoError(t, s.AddJob(&funcJob{name: "long", schedule: "@daily", run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	}}))

	require.NoError(t, s.RunJob("long"))
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, sawCancel.Load())
	assert.ErrorIs(t, s.RunJobSync("long"), ErrStopped)
}

func TestStart_RunsOnSchedule(t *testing.T) {
	s := newScheduler()
	var calls int32
	require.NoError(t, s.AddJob(&funcJob{name: "tick", schedule: "* * * * * *", run: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) > 0 }, 3*time.Second, 20*time.Millisecond)
	assert.NotNil(t, s.GetJobStats()["tick"].NextRun)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	_, ok := h.Last()
	assert.False(t, ok)

	var st JobStats
	h.summarize(&st)
	assert.Zero(t, st.TotalRuns)
	assert.Equal(t, 0.0, st.SuccessRate)
	assert.Nil(t, st.LastRun)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxHistory+10; i++ {
		h.Add(JobResult{StartTime: base.Add(time.Duration(i) * time.Minute), Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)

	last, ok := h.Last()
	require.True(t, ok)
	assert.False(t, last.Success)

	st = JobStats{}
	h.summarize(&st)
	assert.Equal(t, maxHistory, st.TotalRuns)
	assert.Equal(t, maxHistory/2, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	require.NotNil(t, st.LastFailure)
	require.NotNil(t, st.LastSuccess)
	assert.True(t, st.LastFailure.After(*st.LastSuccess))
}
