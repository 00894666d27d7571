package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"servicewatchdog/internal/logging"
	"servicewatchdog/internal/models"
)

// EnvPrefix prefixes every environment override, e.g. SM_MONITOR__TARGET.
const EnvPrefix = "SM_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents configuration data for the watchdog process.
type Config struct {
	Monitor       models.MonitorPolicy `yaml:"monitor" toml:"monitor"`
	Logging       logging.Config       `yaml:"logging" toml:"logging"`
	Server        ServerConfig         `yaml:"server" toml:"server"`
	DataDirectory string               `yaml:"data_directory" toml:"data_directory"`
	EventHistory  int                  `yaml:"event_history" toml:"event_history"`
}

// ServerConfig controls the local status API.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Address string `yaml:"address" toml:"address"`
}

// DefaultConfig returns the defaults applied before the file and the
// environment. The target has no default and must be configured.
func DefaultConfig() Config {
	return Config{
		Monitor: models.MonitorPolicy{
			PollInterval:        5 * time.Second,
			StartTimeout:        30 * time.Second,
			MaxRestartsInWindow: 5,
			RestartWindow:       5 * time.Minute,
			Cooldown:            10 * time.Minute,
		},
		Logging: logging.DefaultConfig(),
		Server: ServerConfig{
			Enabled: true,
			Address: "127.0.0.1:9470",
		},
		DataDirectory: filepath.Join(".dist", "data"),
		EventHistory:  1000,
	}
}

// Load reads configuration from a YAML or TOML file, applies SM_
// environment overrides and validates the result. A missing file falls
// back to defaults so the watchdog can be configured from the environment
// alone.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(path, content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	cfg.Monitor.Target = strings.TrimSpace(cfg.Monitor.Target)
	cfg.Monitor.MaintenanceFlagPath = strings.TrimSpace(cfg.Monitor.MaintenanceFlagPath)
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = DefaultConfig().DataDirectory
	}
	if cfg.EventHistory <= 0 {
		cfg.EventHistory = DefaultConfig().EventHistory
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultConfig().Server.Address
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, content []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(content), cfg)
		return err
	}
	return yaml.Unmarshal(content, cfg)
}

// Validate checks the monitor policy and logging settings.
func (c Config) Validate() error {
	p := c.Monitor
	switch {
	case p.Target == "":
		return fmt.Errorf("%w: monitor.target is required", ErrInvalid)
	case p.PollInterval <= 0:
		return fmt.Errorf("%w: monitor.poll_interval must be positive", ErrInvalid)
	case p.StartTimeout <= 0:
		return fmt.Errorf("%w: monitor.start_timeout must be positive", ErrInvalid)
	case p.MaxRestartsInWindow < 1:
		return fmt.Errorf("%w: monitor.max_restarts_in_window must be at least 1", ErrInvalid)
	case p.RestartWindow <= 0:
		return fmt.Errorf("%w: monitor.restart_window must be positive", ErrInvalid)
	case p.Cooldown < 0:
		return fmt.Errorf("%w: monitor.cooldown must not be negative", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	return nil
}

// Policy returns the immutable monitor policy.
func (c Config) Policy() models.MonitorPolicy {
	return c.Monitor
}
