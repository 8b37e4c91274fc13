package model

import "fmt"

// ConfigError reports a malformed or missing setting. It is fatal and always
// surfaces before any task runs.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// FilesystemError reports that the output directory could not be prepared.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("output directory %s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// TaskInvocationError reports that the aggregation command for one user
// could not be launched or exited non-zero. ExitCode is -1 when the process
// never started or was killed by a signal.
type TaskInvocationError struct {
	UserID   string
	ExitCode int
	Err      error
}

func (e *TaskInvocationError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("aggregate %s: exit status %d", e.UserID, e.ExitCode)
	}
	return fmt.Sprintf("aggregate %s: %v", e.UserID, e.Err)
}

func (e *TaskInvocationError) Unwrap() error { return e.Err }
