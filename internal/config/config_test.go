package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-aggregate-dispatcher/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func valid() *Config {
	cfg := Default()
	cfg.IDsPath = "users.txt"
	cfg.DBPaths = []string{"a.db"}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Jobs)
	require.Equal(t, "aggregates", cfg.OutputDir)
	require.Equal(t, []string{"aggregate"}, cfg.Command)
	require.Equal(t, "file", cfg.Gate)
	require.Equal(t, 10*time.Second, cfg.KillGrace)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "dispatcher.toml", `
jobs = 8
output_dir = "/srv/out"
command = ["python3", "aggregate.py"]
gate = "ledger"
ledger = "runs.db"
kill_grace = "3s"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Jobs)
	require.Equal(t, "/srv/out", cfg.OutputDir)
	require.Equal(t, []string{"python3", "aggregate.py"}, cfg.Command)
	require.Equal(t, "ledger", cfg.Gate)
	require.Equal(t, "runs.db", cfg.Ledger)
	require.Equal(t, 3*time.Second, cfg.KillGrace)
	require.Equal(t, "info", cfg.LogLevel, "unset keys keep their defaults")
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "dispatcher.yaml", `
jobs: 2
dedup: true
fail_on_error: true
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Jobs)
	require.True(t, cfg.Dedup)
	require.True(t, cfg.FailOnError)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "aggregates", cfg.OutputDir)
}

func TestLoadYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "dispatcher.yml", "jobz: 2\n"))
	require.Error(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "dispatcher.ini", "jobs=2"))
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DISPATCHER_JOBS", "16")
	t.Setenv("DISPATCHER_COMMAND", "docker,run,aggregator")
	t.Setenv("DISPATCHER_KILL_GRACE", "250ms")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	require.Equal(t, 16, cfg.Jobs)
	require.Equal(t, []string{"docker", "run", "aggregator"}, cfg.Command)
	require.Equal(t, 250*time.Millisecond, cfg.KillGrace)
	require.Equal(t, "aggregates", cfg.OutputDir)
}

func TestApplyEnvBadValue(t *testing.T) {
	t.Setenv("DISPATCHER_JOBS", "many")
	require.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"jobs":          func(c *Config) { c.Jobs = 0 },
		"output_dir":    func(c *Config) { c.OutputDir = "" },
		"command":       func(c *Config) { c.Command = nil },
		"gate":          func(c *Config) { c.Gate = "redis" },
		"kill_grace":    func(c *Config) { c.KillGrace = -time.Second },
		"user_ids_file": func(c *Config) { c.IDsPath = "" },
		"databases":     func(c *Config) { c.DBPaths = nil },
		"log_level":     func(c *Config) { c.LogLevel = "loud" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			var cfgErr *model.ConfigError
			require.True(t, errors.As(cfg.Validate(), &cfgErr))
			require.Equal(t, field, cfgErr.Field)
		})
	}

	t.Run("ledger gate without ledger", func(t *testing.T) {
		cfg := valid()
		cfg.Gate = "ledger"
		var cfgErr *model.ConfigError
		require.True(t, errors.As(cfg.Validate(), &cfgErr))
		cfg.Ledger = "runs.db"
		require.NoError(t, cfg.Validate())
	})
}

func TestValidateRejectsFlagLikeDatabases(t *testing.T) {
	cfg := valid()
	cfg.DBPaths = []string{"d.db", "-j", "2"}

	var cfgErr *model.ConfigError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	require.Equal(t, "databases", cfgErr.Field)
	require.Contains(t, cfgErr.Message, `"-j"`)

	cfg.DBPaths = []string{"d.db", "-"}
	require.NoError(t, cfg.Validate())
}

func TestRunConfigCopiesDatabases(t *testing.T) {
	cfg := valid()
	rc := cfg.RunConfig()
	rc.DBPaths[0] = "mutated"
	require.Equal(t, "a.db", cfg.DBPaths[0])
	require.Equal(t, 4, rc.Concurrency)
}
