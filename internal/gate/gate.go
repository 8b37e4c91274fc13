// Package gate decides whether a user identifier still needs to be
// dispatched. The default FileGate treats the presence of the user's output
// artifact as the completion marker; LedgerGate consults the run ledger
// instead. Neither gate locks: a check and the eventual write by the
// aggregation command are not atomic with each other.
package gate

import (
	"context"

	logging "github.com/ipfs/go-log/v2"

	"go-aggregate-dispatcher/pkg/utils"
)

var log = logging.Logger("gate")

const (
	KindFile   = "file"
	KindLedger = "ledger"
)

// Gate reports whether a user's work is already done.
type Gate interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// FileGate checks for output_dir/<user_id>.csv.
type FileGate struct {
	outputs *utils.OutputManager
}

// NewFileGate creates the output directory if it is absent and returns a
// gate over it. A failure here is a *model.FilesystemError.
func NewFileGate(outputs *utils.OutputManager) (*FileGate, error) {
	if err := outputs.EnsureOutputDirExists(); err != nil {
		return nil, err
	}
	log.Debugf("output directory %s ready", outputs.BaseOutputDir)
	return &FileGate{outputs: outputs}, nil
}

func (g *FileGate) Exists(_ context.Context, userID string) (bool, error) {
	return g.outputs.ArtifactExists(userID)
}
