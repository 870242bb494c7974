// Package config holds the monitor's file configuration and the resolved
// per-run options.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"tmux-monitor/internal/fault"
)

// Config is the TOML file configuration. Zero values fall back to the
// defaults from DefaultConfig.
type Config struct {
	Session string        `toml:"session"`
	Monitor MonitorConfig `toml:"monitor"`
	Roles   RolesConfig   `toml:"roles"`
}

// MonitorConfig tunes the monitoring cycle.
type MonitorConfig struct {
	CycleInterval      duration `toml:"cycle_interval"`
	MaxRuntime         duration `toml:"max_runtime"`
	MaxCaptureRetries  int      `toml:"max_capture_retries"`
	MaxClearRetries    int      `toml:"max_clear_retries"`
	CaptureParallelism int      `toml:"capture_parallelism"`
	StartCommand       string   `toml:"start_command"`
}

// RolesConfig names the role template, inline or from a YAML file.
type RolesConfig struct {
	Template     []string `toml:"template"`
	TemplateFile string   `toml:"template_file"`
}

// duration lets TOML values use Go duration strings.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Monitor: MonitorConfig{
			CycleInterval:      duration(30 * time.Second),
			MaxRuntime:         duration(4 * time.Hour),
			MaxCaptureRetries:  2,
			MaxClearRetries:    3,
			CaptureParallelism: 4,
			StartCommand:       "cld",
		},
	}
}

// DefaultPath returns the user config location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tmux-monitor", "config.toml")
}

// Load reads a TOML config, layering it over the defaults. A missing file
// yields the defaults without error; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fault.Wrap(fault.RepositoryError, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fault.Wrap(fault.InvalidFormat, err, "parse config %s", path)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Monitor.CycleInterval <= 0 {
		c.Monitor.CycleInterval = def.Monitor.CycleInterval
	}
	if c.Monitor.MaxRuntime <= 0 {
		c.Monitor.MaxRuntime = def.Monitor.MaxRuntime
	}
	if c.Monitor.MaxCaptureRetries <= 0 {
		c.Monitor.MaxCaptureRetries = def.Monitor.MaxCaptureRetries
	}
	if c.Monitor.MaxClearRetries <= 0 {
		c.Monitor.MaxClearRetries = def.Monitor.MaxClearRetries
	}
	if c.Monitor.CaptureParallelism <= 0 {
		c.Monitor.CaptureParallelism = def.Monitor.CaptureParallelism
	}
	if c.Monitor.StartCommand == "" {
		c.Monitor.StartCommand = def.Monitor.StartCommand
	}
}

// Options are the resolved per-run settings after flags and config merge.
type Options struct {
	Session string
	Remote  string

	Continuous      bool
	ScheduledStart  *time.Time
	InstructionFile string

	KillAllPanes  bool
	ClearAllPanes bool

	StartInteractive bool
	JSONStream       bool

	CycleInterval      time.Duration
	MaxRuntime         time.Duration
	MaxCaptureRetries  int
	MaxClearRetries    int
	CaptureParallelism int
	StartCommand       string

	RoleTemplate []string
}

// OptionsFrom builds run options from a loaded config. Flag handling
// layers on top of the result.
func OptionsFrom(cfg Config) (Options, error) {
	template := cfg.Roles.Template
	if cfg.Roles.TemplateFile != "" {
		loaded, err := LoadRoleTemplate(cfg.Roles.TemplateFile)
		if err != nil {
			return Options{}, err
		}
		template = loaded
	}

	return Options{
		Session:            cfg.Session,
		Continuous:         true,
		CycleInterval:      time.Duration(cfg.Monitor.CycleInterval),
		MaxRuntime:         time.Duration(cfg.Monitor.MaxRuntime),
		MaxCaptureRetries:  cfg.Monitor.MaxCaptureRetries,
		MaxClearRetries:    cfg.Monitor.MaxClearRetries,
		CaptureParallelism: cfg.Monitor.CaptureParallelism,
		StartCommand:       cfg.Monitor.StartCommand,
		RoleTemplate:       template,
	}, nil
}

// IsAdminAction reports whether a one-shot administrative action was
// requested instead of a monitoring run.
func (o Options) IsAdminAction() bool {
	return o.KillAllPanes || o.ClearAllPanes
}
