package model

import "time"

// TaskStatus is the outcome of one invocation.
type TaskStatus string

const (
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
	StatusSkipped   TaskStatus = "skipped"
)

// TaskResult represents the result of running the aggregation command for a task
type TaskResult struct {
	Task       Task       `json:"-"`
	Status     TaskStatus `json:"status"`
	ExitCode   int        `json:"exit_code"`
	Err        error      `json:"-"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Duration is the wall time the invocation took.
func (r TaskResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunSummary represents the outcome of one dispatcher run
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Read       int       `json:"read"`
	Skipped    int       `json:"skipped"`
	Duplicates int       `json:"duplicates"`
	Dispatched int       `json:"dispatched"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Cancelled  int       `json:"cancelled"`
	SkippedIDs []string  `json:"skipped_ids,omitempty"`
	FailedIDs  []string  `json:"failed_ids,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
