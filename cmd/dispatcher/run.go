package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"go-aggregate-dispatcher/internal/config"
	"go-aggregate-dispatcher/internal/dispatcher"
	"go-aggregate-dispatcher/internal/gate"
	"go-aggregate-dispatcher/internal/input"
	"go-aggregate-dispatcher/internal/model"
	"go-aggregate-dispatcher/internal/pool"
	"go-aggregate-dispatcher/internal/store"
	"go-aggregate-dispatcher/pkg/utils"
)

func run(cctx *cli.Context) error {
	cfg, err := loadConfig(cctx)
	if err != nil {
		_ = cli.ShowAppHelp(cctx)
		return err
	}
	if err := logging.SetLogLevel("*", cfg.LogLevel); err != nil {
		return err
	}

	src, err := input.Open(cfg.IDsPath, os.Stdin)
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck

	var db *store.DB
	if cfg.Ledger != "" {
		if db, err = store.InitDB(cfg.Ledger); err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck
	}

	g, err := newGate(cfg, db)
	if err != nil {
		return err
	}

	p, err := pool.New(cfg.Jobs, &pool.CommandInvoker{Command: cfg.Command, KillGrace: cfg.KillGrace})
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	opts := dispatcher.Options{Dedup: cfg.Dedup, FailOnError: cfg.FailOnError}
	if db != nil {
		opts.Observers = append(opts.Observers, store.NewRecorder(db, runID))
	}

	var progress *dispatcher.Progress
	if cfg.Progress {
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			progress = dispatcher.NewProgress(os.Stderr)
			opts.Observers = append(opts.Observers, progress)
		} else {
			log.Warn("--progress ignored: stderr is not a terminal")
		}
	}

	d, err := dispatcher.New(cfg.RunConfig(), g, p, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if db != nil {
		if err := db.SaveRun(ctx, runRecord(runID, cfg)); err != nil {
			return xerrors.Errorf("recording run in ledger: %w", err)
		}
	}

	summary, runErr := d.Run(ctx, runID, src)
	if progress != nil {
		progress.Finish()
	}

	if db != nil && summary != nil {
		if err := db.FinishRun(context.Background(), summary, runErr); err != nil {
			log.Errorw("failed to record run outcome", "run", runID, "error", err)
		}
	}
	if summary != nil {
		printSummary(cctx.App.ErrWriter, summary)
	}
	return runErr
}

func newGate(cfg *config.Config, db *store.DB) (gate.Gate, error) {
	if cfg.Gate == gate.KindLedger {
		return gate.NewLedgerGate(db), nil
	}
	return gate.NewFileGate(utils.NewOutputManager(cfg.OutputDir))
}

func runRecord(id string, cfg *config.Config) model.RunRecord {
	return model.RunRecord{
		ID:          id,
		Command:     cfg.Command,
		OutputDir:   cfg.OutputDir,
		DBPaths:     cfg.DBPaths,
		Concurrency: cfg.Jobs,
		Status:      "running",
		StartedAt:   time.Now(),
	}
}

func printSummary(w io.Writer, s *model.RunSummary) {
	if w == nil {
		w = os.Stderr
	}
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	failed := fmt.Sprint(s.Failed)
	if s.Failed > 0 {
		failed = bad(failed)
	}
	_, _ = fmt.Fprintf(w, "%s %s dispatched, %s succeeded, %s failed, %s skipped, %s cancelled %s\n",
		dim("run "+s.RunID+":"),
		humanize.Comma(int64(s.Dispatched)), ok(humanize.Comma(int64(s.Succeeded))), failed,
		humanize.Comma(int64(s.Skipped)), humanize.Comma(int64(s.Cancelled)),
		dim("("+s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()+")"))
	for _, id := range s.FailedIDs {
		_, _ = fmt.Fprintf(w, "  %s %s\n", bad("failed:"), id)
	}
}
