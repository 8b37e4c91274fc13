package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"go-aggregate-dispatcher/internal/config"
)

func newFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "number of aggregation commands to run at once",
			Value:   config.Default().Jobs,
		},
		&cli.StringFlag{
			Name:      "output-dir",
			Usage:     "directory holding <user_id>.csv outputs",
			Value:     config.Default().OutputDir,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "command",
			Usage: "aggregation command, split on whitespace (e.g. \"python3 aggregate.py\")",
			Value: strings.Join(config.Default().Command, " "),
		},
		&cli.StringFlag{
			Name:      "config",
			Usage:     "load settings from a .toml or .yaml file",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "ledger",
			Usage:     "record runs and task outcomes in this sqlite file",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  "gate",
			Usage: "how finished users are detected: file or ledger",
			Value: config.Default().Gate,
		},
		&cli.BoolFlag{
			Name:  "dedup",
			Usage: "dispatch each user id at most once per run",
		},
		&cli.BoolFlag{
			Name:  "fail-on-error",
			Usage: "exit non-zero when any aggregation command failed",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "draw a progress bar on stderr",
		},
		&cli.DurationFlag{
			Name:  "kill-grace",
			Usage: "how long an interrupted command may keep running before it is killed",
			Value: config.Default().KillGrace,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
			Value: config.Default().LogLevel,
		},
	}
}

// loadConfig layers defaults, the config file, the environment and the
// flags the user actually set.
func loadConfig(cctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cctx.IsSet("jobs") {
		cfg.Jobs = cctx.Int("jobs")
	}
	if cctx.IsSet("output-dir") {
		cfg.OutputDir = cctx.String("output-dir")
	}
	if cctx.IsSet("command") {
		cfg.Command = strings.Fields(cctx.String("command"))
	}
	if cctx.IsSet("ledger") {
		cfg.Ledger = cctx.String("ledger")
	}
	if cctx.IsSet("gate") {
		cfg.Gate = cctx.String("gate")
	}
	if cctx.IsSet("dedup") {
		cfg.Dedup = cctx.Bool("dedup")
	}
	if cctx.IsSet("fail-on-error") {
		cfg.FailOnError = cctx.Bool("fail-on-error")
	}
	if cctx.IsSet("progress") {
		cfg.Progress = cctx.Bool("progress")
	}
	if cctx.IsSet("kill-grace") {
		cfg.KillGrace = cctx.Duration("kill-grace")
	}
	if cctx.IsSet("log-level") {
		cfg.LogLevel = cctx.String("log-level")
	}

	args := cctx.Args().Slice()
	if len(args) > 0 {
		cfg.IDsPath = args[0]
		cfg.DBPaths = args[1:]
	}

	return cfg, cfg.Validate()
}
