package model

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskArgsOrder(t *testing.T) {
	task := NewTask("alice", "out/alice.csv", []string{"a.db", "b.db"})
	require.Equal(t, []string{"-i", "alice", "-o", "out/alice.csv", "a.db", "b.db"}, task.Args())
}

func TestTaskIsImmutable(t *testing.T) {
	dbs := []string{"a.db", "b.db"}
	task := NewTask("bob", "out/bob.csv", dbs)

	dbs[0] = "changed.db"
	require.Equal(t, []string{"a.db", "b.db"}, task.DBPaths())

	got := task.DBPaths()
	got[1] = "mutated.db"
	require.Equal(t, []string{"a.db", "b.db"}, task.DBPaths())
}

func TestArtifactPath(t *testing.T) {
	require.Equal(t, filepath.Join("aggregates", "carol.csv"), ArtifactPath("aggregates", "carol"))
}

func TestTaskInvocationError(t *testing.T) {
	cause := errors.New("boom")
	err := &TaskInvocationError{UserID: "bob", ExitCode: 3, Err: cause}
	require.Equal(t, "aggregate bob: exit status 3", err.Error())
	require.ErrorIs(t, err, cause)

	err = &TaskInvocationError{UserID: "bob", ExitCode: -1, Err: cause}
	require.Equal(t, "aggregate bob: boom", err.Error())
}
