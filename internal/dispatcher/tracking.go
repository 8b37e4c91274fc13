package dispatcher

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"

	"go-aggregate-dispatcher/internal/model"
)

// RunTracker accumulates the counters of a single run.
type RunTracker struct {
	mu       sync.Mutex
	summary  model.RunSummary
	failures []error
}

// NewRunTracker creates a tracker for runID, started now.
func NewRunTracker(runID string) *RunTracker {
	return &RunTracker{summary: model.RunSummary{RunID: runID, StartedAt: time.Now()}}
}

// Read counts one identifier taken from the input.
func (t *RunTracker) Read() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Read++
}

// Duplicate counts an identifier dropped by in-run deduplication.
func (t *RunTracker) Duplicate(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Duplicates++
}

func (t *RunTracker) Skipped(userID, _ string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Skipped++
	t.summary.SkippedIDs = append(t.summary.SkippedIDs, userID)
}

func (t *RunTracker) Submitted(model.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Dispatched++
}

func (t *RunTracker) Finished(res model.TaskResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch res.Status {
	case model.StatusSucceeded:
		t.summary.Succeeded++
	case model.StatusCancelled:
		t.summary.Cancelled++
	default:
		t.summary.Failed++
		t.summary.FailedIDs = append(t.summary.FailedIDs, res.Task.UserID)
		t.failures = append(t.failures, res.Err)
	}
}

// Failures combines the errors of every failed task, or returns nil.
func (t *RunTracker) Failures() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return multierr.Combine(t.failures...)
}

// Complete stamps the finish time, logs the totals and returns a copy of
// the summary.
func (t *RunTracker) Complete() model.RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.summary.FinishedAt = time.Now()
	s := t.summary
	log.Infof("run %s finished in %s: %s read, %s skipped, %s dispatched, %s succeeded, %s failed, %s cancelled",
		s.RunID, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond),
		humanize.Comma(int64(s.Read)), humanize.Comma(int64(s.Skipped)), humanize.Comma(int64(s.Dispatched)),
		humanize.Comma(int64(s.Succeeded)), humanize.Comma(int64(s.Failed)), humanize.Comma(int64(s.Cancelled)))

	s.SkippedIDs = append([]string(nil), s.SkippedIDs...)
	s.FailedIDs = append([]string(nil), s.FailedIDs...)
	return s
}
