package pool

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"golang.org/x/xerrors"

	"go-aggregate-dispatcher/internal/model"
)

// CommandInvoker runs the external aggregation command as
//
//	Command[0] Command[1:]... -i <user_id> -o <output_path> <db>...
//
// The child's stdout and stderr pass through to Stdout and Stderr (the
// process's own streams when nil).
type CommandInvoker struct {
	Command []string
	Stdout  io.Writer
	Stderr  io.Writer

	// KillGrace is how long the command and anything it started may keep
	// running after the run was cancelled and they were sent an interrupt.
	// Zero kills them immediately.
	KillGrace time.Duration
}

func (c *CommandInvoker) Invoke(ctx context.Context, task model.Task) (int, error) {
	if len(c.Command) == 0 {
		return -1, xerrors.New("no aggregation command configured")
	}

	args := make([]string, 0, len(c.Command)-1+len(task.Args()))
	args = append(args, c.Command[1:]...)
	args = append(args, task.Args()...)

	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	group := newProcessGroup(cmd, c.KillGrace)

	err := cmd.Run()
	if ctx.Err() != nil {
		group.reap()
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	return -1, xerrors.Errorf("launching %s: %w", c.Command[0], err)
}
