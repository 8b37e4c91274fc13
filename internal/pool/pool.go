package pool

import (
	"context"
	"fmt"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	"go-aggregate-dispatcher/internal/model"
)

var log = logging.Logger("pool")

// Invoker runs the aggregation step for one task to completion. err is
// non-nil when the step could not be launched or exited non-zero; exitCode
// is -1 when no exit status is available.
type Invoker interface {
	Invoke(ctx context.Context, task model.Task) (exitCode int, err error)
}

// Pool runs at most Jobs invocations at any instant.
type Pool struct {
	jobs    int
	invoker Invoker
}

// New creates a pool of jobs workers around invoker.
func New(jobs int, invoker Invoker) (*Pool, error) {
	if jobs < 1 {
		return nil, &model.ConfigError{Field: "jobs", Message: fmt.Sprintf("must be a positive integer, got %d", jobs)}
	}
	return &Pool{jobs: jobs, invoker: invoker}, nil
}

// Jobs is the concurrency limit.
func (p *Pool) Jobs() int {
	return p.jobs
}

// Start launches the workers. Every task received on tasks is invoked
// exactly once and produces exactly one result; results arrive in
// completion order, not submission order. The returned channel is closed
// once tasks is closed and every worker has finished, so the caller must
// drain it.
//
// Once ctx is cancelled, tasks still queued are not launched and are
// reported as cancelled.
func (p *Pool) Start(ctx context.Context, tasks <-chan model.Task) <-chan model.TaskResult {
	out := make(chan model.TaskResult, p.jobs)

	var g errgroup.Group
	for i := 0; i < p.jobs; i++ {
		workerID := i + 1
		g.Go(func() error {
			count := 0
			for task := range tasks {
				out <- p.run(ctx, task)
				count++
			}
			log.Debugf("worker %d finished after %d tasks", workerID, count)
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out
}

func (p *Pool) run(ctx context.Context, task model.Task) model.TaskResult {
	res := model.TaskResult{Task: task, ExitCode: -1}
	if err := ctx.Err(); err != nil {
		res.Status = model.StatusCancelled
		res.Err = &model.TaskInvocationError{UserID: task.UserID, ExitCode: -1, Err: err}
		return res
	}

	log.Infof("starting %s", task.UserID)
	res.StartedAt = time.Now()
	code, err := p.invoker.Invoke(ctx, task)
	res.FinishedAt = time.Now()
	res.ExitCode = code

	switch {
	case err == nil:
		res.Status = model.StatusSucceeded
		res.ExitCode = 0
	case ctx.Err() != nil:
		res.Status = model.StatusCancelled
		res.Err = &model.TaskInvocationError{UserID: task.UserID, ExitCode: code, Err: err}
	default:
		res.Status = model.StatusFailed
		res.Err = &model.TaskInvocationError{UserID: task.UserID, ExitCode: code, Err: err}
		log.Warnw("aggregation failed", "user", task.UserID, "exit_code", code, "error", err)
	}
	return res
}
