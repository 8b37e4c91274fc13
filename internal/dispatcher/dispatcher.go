package dispatcher

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"go-aggregate-dispatcher/internal/gate"
	"go-aggregate-dispatcher/internal/input"
	"go-aggregate-dispatcher/internal/model"
	"go-aggregate-dispatcher/internal/pool"
	"go-aggregate-dispatcher/pkg/utils"
)

var log = logging.Logger("dispatcher")

// Observer sees every identifier the dispatcher handles. Skipped and
// Submitted are called from the dispatch loop, Finished from the result
// collector, so implementations must be safe for concurrent use.
type Observer interface {
	Skipped(userID, outputPath string)
	Submitted(task model.Task)
	Finished(res model.TaskResult)
}

// Options tune a Dispatcher beyond its RunConfig.
type Options struct {
	// Dedup drops an identifier that was already dispatched earlier in the
	// same run instead of running it twice concurrently.
	Dedup bool
	// FailOnError makes Run return an error when any task failed.
	FailOnError bool
	Observers   []Observer
}

// Dispatcher reads identifiers, filters them through a Gate and feeds the
// survivors to a Pool.
type Dispatcher struct {
	cfg     model.RunConfig
	outputs *utils.OutputManager
	gate    gate.Gate
	pool    *pool.Pool
	opts    Options
}

// New checks cfg and makes sure the output directory exists.
func New(cfg model.RunConfig, g gate.Gate, p *pool.Pool, opts Options) (*Dispatcher, error) {
	if len(cfg.DBPaths) == 0 {
		return nil, &model.ConfigError{Field: "databases", Message: "at least one database path is required"}
	}
	if cfg.OutputDir == "" {
		return nil, &model.ConfigError{Field: "output_dir", Message: "must not be empty"}
	}

	outputs := utils.NewOutputManager(cfg.OutputDir)
	if err := outputs.EnsureOutputDirExists(); err != nil {
		return nil, err
	}

	return &Dispatcher{cfg: cfg, outputs: outputs, gate: g, pool: p, opts: opts}, nil
}

// Run dispatches every identifier read from src and blocks until all
// submitted tasks have finished.
//
// Per-task failures never stop the batch. They surface as an error only
// with Options.FailOnError. A read error on src stops submission, lets
// in-flight tasks drain and is returned.
func (d *Dispatcher) Run(ctx context.Context, runID string, src io.Reader) (*model.RunSummary, error) {
	tracker := NewRunTracker(runID)
	observers := append([]Observer{tracker}, d.opts.Observers...)

	log.Infow("dispatch started", "run", runID, "jobs", d.pool.Jobs(), "output_dir", d.cfg.OutputDir, "databases", d.cfg.DBPaths)

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	ids := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(ids)
		readErr <- input.ReadIDs(readCtx, src, ids)
	}()

	tasks := make(chan model.Task)
	results := d.pool.Start(ctx, tasks)

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range results {
			d.checkArtifact(res)
			for _, o := range observers {
				o.Finished(res)
			}
		}
	}()

	dispatched := make(map[string]struct{})
	for id := range ids {
		tracker.Read()
		outputPath := d.outputs.GetOutputFilePath(id)

		done, err := d.gate.Exists(ctx, id)
		if err != nil {
			log.Warnw("output check failed, dispatching anyway", "user", id, "error", err)
		}
		if done {
			log.Infof("skipping %s", id)
			for _, o := range observers {
				o.Skipped(id, outputPath)
			}
			continue
		}

		if d.opts.Dedup {
			if _, seen := dispatched[id]; seen {
				log.Infof("skipping %s: already dispatched in this run", id)
				tracker.Duplicate(id)
				continue
			}
			dispatched[id] = struct{}{}
		}

		task := model.NewTask(id, outputPath, d.cfg.DBPaths)
		for _, o := range observers {
			o.Submitted(task)
		}
		tasks <- task
	}

	close(tasks)
	<-collected

	summary := tracker.Complete()

	if err := <-readErr; err != nil && !errors.Is(err, context.Canceled) {
		return &summary, xerrors.Errorf("run %s: %w", runID, err)
	}
	if err := ctx.Err(); err != nil {
		return &summary, xerrors.Errorf("run %s interrupted: %w", runID, err)
	}
	if d.opts.FailOnError && summary.Failed > 0 {
		return &summary, xerrors.Errorf("run %s: %d of %d tasks failed: %w", runID, summary.Failed, summary.Dispatched, tracker.Failures())
	}
	return &summary, nil
}

// checkArtifact warns when a task reported success but left nothing behind,
// since that identifier will be dispatched again on the next run.
func (d *Dispatcher) checkArtifact(res model.TaskResult) {
	if res.Status != model.StatusSucceeded {
		return
	}
	size, err := d.outputs.GetFileSize(res.Task.OutputPath)
	switch {
	case err == nil:
		log.Debugf("%s wrote %s in %s", res.Task.UserID, humanize.Bytes(uint64(size)), res.Duration())
	case os.IsNotExist(err):
		log.Warnf("%s exited 0 but wrote no output at %s", res.Task.UserID, res.Task.OutputPath)
	default:
		log.Warnw("cannot stat output", "user", res.Task.UserID, "error", err)
	}
}
