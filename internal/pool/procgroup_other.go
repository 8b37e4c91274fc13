//go:build !unix

package pool

import (
	"os"
	"os/exec"
	"time"
)

// processGroup only signals the direct child where process groups are not
// available.
type processGroup struct{}

func newProcessGroup(cmd *exec.Cmd, grace time.Duration) *processGroup {
	if grace > 0 {
		cmd.Cancel = func() error {
			return cmd.Process.Signal(os.Interrupt)
		}
		cmd.WaitDelay = grace
	}
	return &processGroup{}
}

func (*processGroup) reap() {}
