package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: scheduled job interface
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job. ctx is cancelled when the scheduler stops.
	Run(ctx context.Context) error

	// Schedule returns the cron expression (seconds field first)
	// Examples: "0 30 0 * * *" (every day at 00:30:00)
	//           "@every 15m", "@daily"
	Schedule() string
}

// Retrier lets a job override the scheduler's retry count
type Retrier interface {
	MaxRetries() int
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory bounds the results kept per job
const maxHistory = 100

// JobHistory keeps the most recent results of one job, oldest first
type JobHistory struct {
	Results []JobResult `json:"results"`
}

// Add appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = h.Results[over:]
	}
}

// Last returns the most recent result
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// summarize fills the run counters and last-run timestamps of st
func (h *JobHistory) summarize(st *JobStats) {
	st.TotalRuns = len(h.Results)
	for i := len(h.Results) - 1; i >= 0; i-- {
		r := h.Results[i]
		if r.Success {
			st.SuccessCount++
			if st.LastSuccess == nil {
				st.LastSuccess = &r.StartTime
			}
			continue
		}
		st.FailureCount++
		if st.LastFailure == nil {
			st.LastFailure = &r.StartTime
		}
	}
	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalRuns)
	}
	if last, ok := h.Last(); ok {
		st.LastRun = &last.StartTime
		st.LastError = last.Error
	}
}

// clone returns a copy safe to hand out of the scheduler lock
func (h *JobHistory) clone() *JobHistory {
	out := &JobHistory{Results: make([]JobResult, len(h.Results))}
	copy(out.Results, h.Results)
	return out
}
