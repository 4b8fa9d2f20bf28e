package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/market-radar/internal/snapshot"
	"github.com/wonny/market-radar/pkg/logger"
)

// SnapshotRetentionJob deletes snapshots older than the retention window
type SnapshotRetentionJob struct {
	pruner snapshot.Pruner
	days   int
	logger *logger.Logger
	now    func() time.Time
}

// NewSnapshotRetentionJob creates a new retention job. days <= 0 keeps everything.
func NewSnapshotRetentionJob(pruner snapshot.Pruner, days int, log *logger.Logger) *SnapshotRetentionJob {
	return &SnapshotRetentionJob{
		pruner: pruner,
		days:   days,
		logger: log,
		now:    time.Now,
	}
}

// Name returns the job name
func (j *SnapshotRetentionJob) Name() string {
	return "snapshot_retention"
}

// Schedule returns the cron schedule (every day at 00:30)
func (j *SnapshotRetentionJob) Schedule() string {
	return "0 30 0 * * *"
}

// Run prunes old snapshots
func (j *SnapshotRetentionJob) Run(ctx context.Context) error {
	if j.days <= 0 {
		return nil
	}

	cutoff := j.now().AddDate(0, 0, -j.days)
	removed, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("snapshot retention failed: %w", err)
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"before":  cutoff.Format(snapshot.DateLayout),
		}).Info("Old snapshots removed")
	}
	return nil
}
