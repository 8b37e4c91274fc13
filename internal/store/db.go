package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	logging "github.com/ipfs/go-log/v2"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/xerrors"

	"go-aggregate-dispatcher/internal/model"
)

var log = logging.Logger("store")

// ErrNotFound is returned when a run does not exist in the ledger.
var ErrNotFound = xerrors.New("not found")

// DB is the ledger: an optional sqlite record of dispatcher runs and of
// every skip or invocation attempt they made.
type DB struct {
	db *sql.DB
}

// Initialize DB connection
func InitDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, xerrors.Errorf("opening ledger %s: %w", dbPath, err)
	}
	// sqlite allows a single writer; workers report results concurrently.
	db.SetMaxOpenConns(1)

	// Create tables if not exists
	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT,
		output_dir TEXT,
		db_paths TEXT,
		concurrency INTEGER,
		status TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		dispatched INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		cancelled INTEGER DEFAULT 0,
		duplicates INTEGER DEFAULT 0
	);
	`
	taskTable := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		user_id TEXT,
		output_path TEXT,
		status TEXT,
		exit_code INTEGER,
		error_message TEXT,
		started_at DATETIME,
		finished_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS tasks_user_id ON tasks (user_id, status);
	CREATE INDEX IF NOT EXISTS tasks_run_id ON tasks (run_id);
	`

	if _, err := db.Exec(runTable); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("creating runs table: %w", err)
	}
	if _, err := db.Exec(taskTable); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("creating tasks table: %w", err)
	}
	// Ledgers written before these counters existed
	for _, column := range []string{"cancelled", "duplicates"} {
		if err := addColumn(db, "runs", column, "INTEGER DEFAULT 0"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &DB{db: db}, nil
}

// Close closes the underlying connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// SaveRun stores a new run in "running" state
func (s *DB) SaveRun(ctx context.Context, run model.RunRecord) error {
	command, err := json.Marshal(run.Command)
	if err != nil {
		return err
	}
	dbPaths, err := json.Marshal(run.DBPaths)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, command, output_dir, db_paths, concurrency, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(command), run.OutputDir, string(dbPaths), run.Concurrency, "running", run.StartedAt.UTC())
	return err
}

// FinishRun records the final counters and status of a run. An interrupted
// run is stored as "cancelled", any other error as "failed".
func (s *DB) FinishRun(ctx context.Context, summary *model.RunSummary, runErr error) error {
	status := "completed"
	switch {
	case xerrors.Is(runErr, context.Canceled):
		status = "cancelled"
	case runErr != nil:
		status = "failed"
	}
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ?, finished_at = ?, dispatched = ?, skipped = ?, succeeded = ?, failed = ?, cancelled = ?, duplicates = ? WHERE id = ?`,
		status, summary.FinishedAt.UTC(), summary.Dispatched, summary.Skipped, summary.Succeeded, summary.Failed,
		summary.Cancelled, summary.Duplicates, summary.RunID)
	return err
}

// SaveTaskResult records one finished invocation
func (s *DB) SaveTaskResult(ctx context.Context, runID string, res model.TaskResult) error {
	var msg string
	if res.Err != nil {
		msg = res.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (run_id, user_id, output_path, status, exit_code, error_message, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Task.UserID, res.Task.OutputPath, string(res.Status), res.ExitCode, msg, nullTime(res.StartedAt), nullTime(res.FinishedAt))
	return err
}

// SaveSkip records an identifier the gate reported as already done
func (s *DB) SaveSkip(ctx context.Context, runID, userID, outputPath string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (run_id, user_id, output_path, status, exit_code) VALUES (?, ?, ?, ?, 0)`,
		runID, userID, outputPath, string(model.StatusSkipped))
	return err
}

// HasSucceeded reports whether any run recorded a successful invocation for the user
func (s *DB) HasSucceeded(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE user_id = ? AND status = ? LIMIT 1`,
		userID, string(model.StatusSucceeded)).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// ListRuns returns all runs, newest first
func (s *DB) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a single run
func (s *DB) GetRun(ctx context.Context, runID string) (model.RunRecord, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if err == sql.ErrNoRows {
		return model.RunRecord{}, xerrors.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// ListTasks returns the task rows of a run in insertion order
func (s *DB) ListTasks(ctx context.Context, runID string) ([]model.TaskRecord, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE run_id = ? ORDER BY id`, runID)
}

// UserHistory returns every recorded attempt for one identifier across runs
func (s *DB) UserHistory(ctx context.Context, userID string) ([]model.TaskRecord, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY id`, userID)
}

const runColumns = `id, command, output_dir, db_paths, concurrency, status, started_at, finished_at, dispatched, skipped, succeeded, failed, cancelled, duplicates`

const taskColumns = `id, run_id, user_id, output_path, status, exit_code, error_message, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.RunRecord, error) {
	var run model.RunRecord
	var command, dbPaths string
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &command, &run.OutputDir, &dbPaths, &run.Concurrency, &run.Status,
		&run.StartedAt, &finished, &run.Dispatched, &run.Skipped, &run.Succeeded, &run.Failed,
		&run.Cancelled, &run.Duplicates); err != nil {
		return model.RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(command), &run.Command); err != nil {
		return model.RunRecord{}, xerrors.Errorf("decoding command of run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(dbPaths), &run.DBPaths); err != nil {
		return model.RunRecord{}, xerrors.Errorf("decoding db paths of run %s: %w", run.ID, err)
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

func (s *DB) queryTasks(ctx context.Context, query string, arg string) ([]model.TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var tasks []model.TaskRecord
	for rows.Next() {
		var rec model.TaskRecord
		var status string
		var msg sql.NullString
		var started, finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.UserID, &rec.OutputPath, &status, &rec.ExitCode, &msg, &started, &finished); err != nil {
			return nil, err
		}
		rec.Status = model.TaskStatus(status)
		rec.Error = msg.String
		if started.Valid {
			t := started.Time
			rec.StartedAt = &t
		}
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		tasks = append(tasks, rec)
	}
	return tasks, rows.Err()
}

// addColumn adds column to table unless it is already there.
func addColumn(db *sql.DB, table, column, decl string) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n); err != nil {
		return xerrors.Errorf("inspecting %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE ` + table + ` ADD COLUMN ` + column + ` ` + decl); err != nil {
		return xerrors.Errorf("adding %s.%s: %w", table, column, err)
	}
	log.Infof("added column %s.%s to ledger", table, column)
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
