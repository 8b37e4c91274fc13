package input

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/mattn/go-isatty"
	"golang.org/x/xerrors"
)

var log = logging.Logger("input")

// StdinName selects standard input as the identifier source.
const StdinName = "-"

// maxLineSize bounds a single identifier line.
const maxLineSize = 1 << 20

// Open returns the identifier source named by path. "-" and "" mean stdin;
// stdin is not closed by the returned closer.
func Open(path string, stdin *os.File) (io.ReadCloser, error) {
	if path == "" || path == StdinName {
		if isatty.IsTerminal(stdin.Fd()) || isatty.IsCygwinTerminal(stdin.Fd()) {
			log.Warn("reading user identifiers from an interactive terminal; end input with Ctrl-D")
		}
		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to open user id file: %w", err)
	}
	return f, nil
}

// ReadIDs streams one identifier per line of r into out. Identifiers are not
// validated or deduplicated; trailing whitespace is trimmed and lines left
// empty are dropped. out is not closed.
func ReadIDs(ctx context.Context, r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	count := 0
	for scanner.Scan() {
		id := strings.TrimRight(scanner.Text(), " \t\r")
		if id == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- id:
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return xerrors.Errorf("reading user ids after %d lines: %w", count, err)
	}

	log.Debugf("read %d user ids", count)
	return nil
}
