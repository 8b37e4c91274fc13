package input

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, ctx context.Context, src string) ([]string, error) {
	t.Helper()
	out := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		errCh <- ReadIDs(ctx, strings.NewReader(src), out)
		close(out)
	}()

	var ids []string
	for id := range out {
		ids = append(ids, id)
	}
	return ids, <-errCh
}

func TestReadIDs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "plain", src: "alice\nbob\ncarol", want: []string{"alice", "bob", "carol"}},
		{name: "trailing newline", src: "alice\nbob\n", want: []string{"alice", "bob"}},
		{name: "crlf", src: "alice\r\nbob\r\n", want: []string{"alice", "bob"}},
		{name: "duplicates kept", src: "alice\nalice\nbob\n", want: []string{"alice", "alice", "bob"}},
		{name: "empty lines dropped", src: "alice\n\n  \nbob\n", want: []string{"alice", "bob"}},
		{name: "order preserved", src: "3\n1\n2\n", want: []string{"3", "1", "2"}},
		{name: "empty", src: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := collect(t, context.Background(), tt.src)
			require.NoError(t, err)
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestReadIDsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan string)
	err := ReadIDs(ctx, strings.NewReader("alice\nbob\n"), out)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\n"), 0644))

	rc, err := Open(path, os.Stdin)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	ids, err := collectReader(t, rc)
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, ids)
}

func TestOpenStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piped.txt")
	require.NoError(t, os.WriteFile(path, []byte("bob\ncarol\n"), 0644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rc, err := Open(StdinName, f)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	ids, err := collectReader(t, rc)
	require.NoError(t, err)
	require.Equal(t, []string{"bob", "carol"}, ids)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.txt"), os.Stdin)
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func collectReader(t *testing.T, r io.Reader) ([]string, error) {
	t.Helper()
	out := make(chan string, 16)
	err := ReadIDs(context.Background(), r, out)
	close(out)
	var ids []string
	for id := range out {
		ids = append(ids, id)
	}
	return ids, err
}
