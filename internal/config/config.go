// Package config loads runtime settings for phasekeep.
//
// Sources, lowest to highest precedence: built-in defaults, the YAML config
// file (.phasekeep/config.yaml unless overridden), and PHASEKEEP_*
// environment variables (PHASEKEEP_HISTORY_LIMIT=100 sets history.limit).
//
// Config is loaded once by the command and passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// StateDirName is the per-repository directory holding phasekeep files.
	StateDirName = ".phasekeep"
	// ConfigFileName is the config file looked up inside the state directory.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "PHASEKEEP"
)

// Config is the resolved configuration. Relative file names are resolved
// against the state directory by the path helpers.
type Config struct {
	Root string `mapstructure:"-"`

	State     StateConfig     `mapstructure:"state"`
	Plans     PlansConfig     `mapstructure:"plans"`
	Workflows WorkflowsConfig `mapstructure:"workflows"`
	History   HistoryConfig   `mapstructure:"history"`
	Log       LogConfig       `mapstructure:"log"`
}

// StateConfig locates the phase state document.
type StateConfig struct {
	Dir  string `mapstructure:"dir"`
	File string `mapstructure:"file"`
}

// PlansConfig locates the plan registry database.
type PlansConfig struct {
	Database string `mapstructure:"database"`
}

// WorkflowsConfig locates the optional workflow overlay file.
type WorkflowsConfig struct {
	File string `mapstructure:"file"`
}

// HistoryConfig bounds git history reads.
type HistoryConfig struct {
	Limit   int           `mapstructure:"limit"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls structured logging. An empty File logs to stderr.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Default returns the built-in configuration for root.
func Default(root string) *Config {
	return &Config{
		Root:      root,
		State:     StateConfig{Dir: StateDirName, File: "state.json"},
		Plans:     PlansConfig{Database: "plans.db"},
		Workflows: WorkflowsConfig{File: "workflows.yaml"},
		History:   HistoryConfig{Limit: 50, Timeout: 5 * time.Second},
		Log:       LogConfig{Level: "INFO"},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("state.dir", d.State.Dir)
	v.SetDefault("state.file", d.State.File)
	v.SetDefault("plans.database", d.Plans.Database)
	v.SetDefault("workflows.file", d.Workflows.File)
	v.SetDefault("history.limit", d.History.Limit)
	v.SetDefault("history.timeout", d.History.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Load resolves the configuration for root. configFile overrides the default
// location; a missing default config file is not an error, a missing
// explicit one is.
func Load(root, configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default(root))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigFile(filepath.Join(root, StateDirName, ConfigFileName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if !missing || configFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Root = root
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a user can get wrong.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.State.Dir) == "" {
		return errors.New("config: state.dir must not be empty")
	}
	if strings.TrimSpace(c.State.File) == "" {
		return errors.New("config: state.file must not be empty")
	}
	if strings.TrimSpace(c.Plans.Database) == "" {
		return errors.New("config: plans.database must not be empty")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("config: history.limit must be positive, got %d", c.History.Limit)
	}
	if c.History.Timeout <= 0 {
		return fmt.Errorf("config: history.timeout must be positive, got %s", c.History.Timeout)
	}
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("config: log.level must be one of DEBUG, INFO, WARN, ERROR, got %q", c.Log.Level)
	}
	return nil
}

// StateDir returns the absolute state directory.
func (c *Config) StateDir() string {
	return c.resolve(c.Root, c.State.Dir)
}

// StatePath returns the path of the phase state document.
func (c *Config) StatePath() string {
	return c.resolve(c.StateDir(), c.State.File)
}

// PlansPath returns the path of the plan registry database.
func (c *Config) PlansPath() string {
	return c.resolve(c.StateDir(), c.Plans.Database)
}

// WorkflowsPath returns the path of the workflow overlay, or "" if unset.
func (c *Config) WorkflowsPath() string {
	if c.Workflows.File == "" {
		return ""
	}
	return c.resolve(c.StateDir(), c.Workflows.File)
}

// LogPath returns the log file path, or "" to log to stderr.
func (c *Config) LogPath() string {
	if c.Log.File == "" {
		return ""
	}
	return c.resolve(c.StateDir(), c.Log.File)
}

func (c *Config) resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// FindRoot walks up from start to the first directory containing .git or
// .phasekeep. It returns start when neither is found.
func FindRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	dir := abs
	for {
		for _, marker := range []string{".git", StateDirName} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}
