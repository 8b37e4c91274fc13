package model

import "path/filepath"

// ArtifactExt is the extension of every per-user output artifact.
const ArtifactExt = ".csv"

// RunConfig is built once at startup and shared read-only by every task.
type RunConfig struct {
	Concurrency int      `json:"concurrency"`
	OutputDir   string   `json:"output_dir"`
	DBPaths     []string `json:"db_paths"`
}

// Task is one unit of work: a single user identifier plus the shared
// database paths and the path its artifact is written to.
type Task struct {
	UserID     string
	OutputPath string
	dbPaths    []string
}

// NewTask copies dbPaths so that later changes to the caller's slice do not
// leak into a task that is already queued.
func NewTask(userID, outputPath string, dbPaths []string) Task {
	dbs := make([]string, len(dbPaths))
	copy(dbs, dbPaths)
	return Task{UserID: userID, OutputPath: outputPath, dbPaths: dbs}
}

// DBPaths returns a copy of the task's database paths, in order.
func (t Task) DBPaths() []string {
	dbs := make([]string, len(t.dbPaths))
	copy(dbs, t.dbPaths)
	return dbs
}

// Args builds the argument list of the aggregation command:
// identifier flag, output-path flag, then the database paths.
func (t Task) Args() []string {
	args := make([]string, 0, 4+len(t.dbPaths))
	args = append(args, "-i", t.UserID, "-o", t.OutputPath)
	return append(args, t.dbPaths...)
}

// ArtifactPath returns outputDir/userID.csv.
func ArtifactPath(outputDir, userID string) string {
	return filepath.Join(outputDir, userID+ArtifactExt)
}
