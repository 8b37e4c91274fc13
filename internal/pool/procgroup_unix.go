//go:build unix

package pool

import (
	"errors"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"
)

const reapPoll = 20 * time.Millisecond

// processGroup makes the command the leader of a new process group so that
// cancellation reaches everything it started, not only the direct child.
type processGroup struct {
	cmd   *exec.Cmd
	grace time.Duration

	// unix nanos of the cancellation signal, zero until cancelled
	signaled atomic.Int64
}

func newProcessGroup(cmd *exec.Cmd, grace time.Duration) *processGroup {
	g := &processGroup{cmd: cmd, grace: grace}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		g.signaled.Store(time.Now().UnixNano())
		if grace <= 0 {
			return g.signal(syscall.SIGKILL)
		}
		return g.signal(syscall.SIGINT)
	}
	// The leader itself is killed by exec once WaitDelay expires.
	cmd.WaitDelay = grace
	return g
}

func (g *processGroup) signal(sig syscall.Signal) error {
	err := syscall.Kill(-g.cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// reap waits out what is left of the grace period for members that outlived
// the group leader, then kills them.
func (g *processGroup) reap() {
	at := g.signaled.Load()
	if at == 0 || g.cmd.Process == nil {
		return
	}

	deadline := time.Unix(0, at).Add(g.grace)
	for time.Now().Before(deadline) {
		if g.signal(0) != nil {
			return
		}
		time.Sleep(reapPoll)
	}
	if err := g.signal(syscall.SIGKILL); err == nil {
		log.Warnf("killed processes left behind by %s (group %d)", g.cmd.Path, g.cmd.Process.Pid)
	}
}
