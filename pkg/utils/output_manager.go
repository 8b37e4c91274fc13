package utils

import (
	"os"

	"golang.org/x/xerrors"

	"go-aggregate-dispatcher/internal/model"
)

// OutputManager handles output file organization and path management
type OutputManager struct {
	BaseOutputDir string
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// EnsureOutputDirExists creates the base output directory if it is absent.
// It is idempotent; a non-directory already sitting at the path is an error.
func (om *OutputManager) EnsureOutputDirExists() error {
	switch fi, err := os.Stat(om.BaseOutputDir); {
	case os.IsNotExist(err):
		if err := os.MkdirAll(om.BaseOutputDir, 0755); err != nil {
			return &model.FilesystemError{Path: om.BaseOutputDir, Err: err}
		}
	case err == nil:
		if !fi.IsDir() {
			return &model.FilesystemError{Path: om.BaseOutputDir, Err: xerrors.New("exists and is not a directory")}
		}
	default:
		return &model.FilesystemError{Path: om.BaseOutputDir, Err: err}
	}
	return nil
}

// GetOutputFilePath returns the artifact path for a user identifier.
func (om *OutputManager) GetOutputFilePath(userID string) string {
	return model.ArtifactPath(om.BaseOutputDir, userID)
}

// ArtifactExists reports whether the user's artifact is on disk right now.
// Only a definite "not found" yields false without an error.
func (om *OutputManager) ArtifactExists(userID string) (bool, error) {
	_, err := os.Stat(om.GetOutputFilePath(userID))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, xerrors.Errorf("stat artifact for %s: %w", userID, err)
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
