package store

import (
	"context"

	"go-aggregate-dispatcher/internal/model"
)

// Recorder writes dispatcher events of one run into the ledger. Write
// failures are logged and never interrupt the run.
type Recorder struct {
	db    *DB
	runID string
}

// NewRecorder returns a recorder for runID.
func NewRecorder(db *DB, runID string) *Recorder {
	return &Recorder{db: db, runID: runID}
}

func (r *Recorder) Skipped(userID, outputPath string) {
	if err := r.db.SaveSkip(context.Background(), r.runID, userID, outputPath); err != nil {
		log.Errorw("failed to record skip", "run", r.runID, "user", userID, "error", err)
	}
}

// Submitted is a no-op: a task row is written once its outcome is known.
func (r *Recorder) Submitted(model.Task) {}

func (r *Recorder) Finished(res model.TaskResult) {
	if err := r.db.SaveTaskResult(context.Background(), r.runID, res); err != nil {
		log.Errorw("failed to record task result", "run", r.runID, "user", res.Task.UserID, "error", err)
	}
}
