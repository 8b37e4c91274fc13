package main

import (
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"go-aggregate-dispatcher/internal/api"
	"go-aggregate-dispatcher/internal/api/handler"
	"go-aggregate-dispatcher/internal/store"
	"go-aggregate-dispatcher/pkg/router"
)

var log = logging.Logger("dispatcher-api")

func main() {
	app := &cli.App{
		Name:  "dispatcher-api",
		Usage: "serve the dispatcher run ledger over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "ledger",
				Usage:     "sqlite ledger written by dispatcher --ledger",
				EnvVars:   []string{"DISPATCHER_LEDGER"},
				Required:  true,
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address",
				EnvVars: []string{"DISPATCHER_API_ADDR"},
				Value:   ":8080",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Action: func(cctx *cli.Context) error {
			if err := logging.SetLogLevel("*", cctx.String("log-level")); err != nil {
				return err
			}

			// Init DB
			db, err := store.InitDB(cctx.String("ledger"))
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			r := router.New()
			api.RegisterRoutes(r, handler.NewRunHandler(db))

			ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return r.Start(ctx, cctx.String("addr"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
