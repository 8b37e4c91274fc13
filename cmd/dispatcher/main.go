package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("dispatcher-cli")

const version = "0.3.0"

func newApp() *cli.App {
	return &cli.App{
		Name:      "dispatcher",
		Usage:     "run the aggregation command once per user id, skipping users whose output already exists",
		Version:   version,
		ArgsUsage: "USER_IDS_FILE DATABASE [DATABASE ...]",
		Description: "Reads one user id per line from USER_IDS_FILE (- for stdin) and runs\n" +
			"   `aggregate -i <id> -o <output_dir>/<id>.csv DATABASE...` for every user that has\n" +
			"   no output yet, at most --jobs at a time. Re-running after a crash picks up where\n" +
			"   the last run stopped. Flags must come before USER_IDS_FILE.",
		Flags:  newFlags(),
		Action: run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
