package gate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-aggregate-dispatcher/internal/model"
	"go-aggregate-dispatcher/pkg/utils"
)

func TestFileGateCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "aggregates")

	_, err := NewFileGate(utils.NewOutputManager(dir))
	require.NoError(t, err)
	require.DirExists(t, dir)

	// second construction over an existing directory is fine
	_, err = NewFileGate(utils.NewOutputManager(dir))
	require.NoError(t, err)
}

func TestFileGateRejectsNonDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aggregates")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := NewFileGate(utils.NewOutputManager(path))
	var fsErr *model.FilesystemError
	require.True(t, errors.As(err, &fsErr))
}

func TestFileGateExists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	g, err := NewFileGate(utils.NewOutputManager(dir))
	require.NoError(t, err)

	ok, err := g.Exists(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.csv"), nil, 0644))
	ok, err = g.Exists(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	// only the .csv artifact counts
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob.tmp"), nil, 0644))
	ok, err = g.Exists(ctx, "bob")
	require.NoError(t, err)
	require.False(t, ok)
}

type fakeLedger map[string]bool

func (l fakeLedger) HasSucceeded(_ context.Context, userID string) (bool, error) {
	return l[userID], nil
}

func TestLedgerGate(t *testing.T) {
	g := NewLedgerGate(fakeLedger{"alice": true})

	ok, err := g.Exists(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Exists(context.Background(), "bob")
	require.NoError(t, err)
	require.False(t, ok)
}
