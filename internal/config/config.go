// Package config holds the dispatcher settings. Values are layered, lowest
// precedence first: Default, a TOML or YAML file, DISPATCHER_* environment
// variables, then whatever the command line set explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	logging "github.com/ipfs/go-log/v2"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"go-aggregate-dispatcher/internal/gate"
	"go-aggregate-dispatcher/internal/model"
)

var log = logging.Logger("config")

// EnvPrefix is prepended to every environment override, e.g. DISPATCHER_JOBS.
const EnvPrefix = "DISPATCHER"

type Config struct {
	Jobs        int           `toml:"jobs" yaml:"jobs" envconfig:"JOBS"`
	OutputDir   string        `toml:"output_dir" yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Command     []string      `toml:"command" yaml:"command" envconfig:"COMMAND"`
	Gate        string        `toml:"gate" yaml:"gate" envconfig:"GATE"`
	Ledger      string        `toml:"ledger" yaml:"ledger" envconfig:"LEDGER"`
	Dedup       bool          `toml:"dedup" yaml:"dedup" envconfig:"DEDUP"`
	FailOnError bool          `toml:"fail_on_error" yaml:"fail_on_error" envconfig:"FAIL_ON_ERROR"`
	Progress    bool          `toml:"progress" yaml:"progress" envconfig:"PROGRESS"`
	KillGrace   time.Duration `toml:"kill_grace" yaml:"kill_grace" envconfig:"KILL_GRACE"`
	LogLevel    string        `toml:"log_level" yaml:"log_level" envconfig:"LOG_LEVEL"`

	// Positional arguments, never read from files or the environment.
	IDsPath string   `toml:"-" yaml:"-" ignored:"true"`
	DBPaths []string `toml:"-" yaml:"-" ignored:"true"`
}

func Default() *Config {
	return &Config{
		Jobs:      4,
		OutputDir: "aggregates",
		Command:   []string{"aggregate"},
		Gate:      gate.KindFile,
		KillGrace: 10 * time.Second,
		LogLevel:  "info",
	}
}

// Load returns the defaults overlaid with the file at path. The format is
// picked from the extension. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, xerrors.Errorf("decoding %s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			log.Warnf("%s: unknown key %q", path, key.String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, xerrors.Errorf("opening %s: %w", path, err)
		}
		defer f.Close() //nolint:errcheck

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, xerrors.Errorf("decoding %s: %w", path, err)
		}
	default:
		return nil, &model.ConfigError{Field: "config", Message: "unsupported file extension " + ext}
	}

	log.Debugf("loaded config from %s", path)
	return cfg, nil
}

// ApplyEnv overlays DISPATCHER_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return xerrors.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}
	return nil
}

// Validate reports the first invalid setting as a *model.ConfigError.
func (c *Config) Validate() error {
	switch {
	case c.Jobs < 1:
		return &model.ConfigError{Field: "jobs", Message: "must be at least 1"}
	case c.OutputDir == "":
		return &model.ConfigError{Field: "output_dir", Message: "must not be empty"}
	case len(c.Command) == 0 || c.Command[0] == "":
		return &model.ConfigError{Field: "command", Message: "must name an executable"}
	case c.Gate != gate.KindFile && c.Gate != gate.KindLedger:
		return &model.ConfigError{Field: "gate", Message: "must be " + gate.KindFile + " or " + gate.KindLedger + ", got " + c.Gate}
	case c.Gate == gate.KindLedger && c.Ledger == "":
		return &model.ConfigError{Field: "gate", Message: "ledger gate needs a ledger path"}
	case c.KillGrace < 0:
		return &model.ConfigError{Field: "kill_grace", Message: "must not be negative"}
	case c.IDsPath == "":
		return &model.ConfigError{Field: "user_ids_file", Message: "is required"}
	case len(c.DBPaths) == 0:
		return &model.ConfigError{Field: "databases", Message: "at least one database path is required"}
	}
	for _, db := range c.DBPaths {
		// Flags after the first positional argument are not parsed as flags.
		if strings.HasPrefix(db, "-") && db != "-" {
			return &model.ConfigError{Field: "databases", Message: fmt.Sprintf("%q looks like a flag; flags must come before USER_IDS_FILE", db)}
		}
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return &model.ConfigError{Field: "log_level", Message: err.Error()}
	}
	return nil
}

// RunConfig is the part of the configuration the dispatcher consumes.
func (c *Config) RunConfig() model.RunConfig {
	return model.RunConfig{
		Concurrency: c.Jobs,
		OutputDir:   c.OutputDir,
		DBPaths:     append([]string(nil), c.DBPaths...),
	}
}
