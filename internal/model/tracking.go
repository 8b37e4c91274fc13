package model

import "time"

// RunRecord is a dispatcher run as stored in the ledger.
type RunRecord struct {
	ID          string     `json:"id"`
	Command     []string   `json:"command"`
	OutputDir   string     `json:"output_dir"`
	DBPaths     []string   `json:"db_paths"`
	Concurrency int        `json:"concurrency"`
	Status      string     `json:"status"` // "running", "completed", "failed", "cancelled"
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Dispatched  int        `json:"dispatched"`
	Skipped     int        `json:"skipped"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Cancelled   int        `json:"cancelled"`
	Duplicates  int        `json:"duplicates"`
}

// TaskRecord is a single skip or invocation attempt as stored in the ledger.
type TaskRecord struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	UserID     string     `json:"user_id"`
	OutputPath string     `json:"output_path"`
	Status     TaskStatus `json:"status"`
	ExitCode   int        `json:"exit_code"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
