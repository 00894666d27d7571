package config

import (
	"fmt"
	"strconv"
	"time"
)

// envSetters maps override names (after EnvPrefix) to the field they set.
// A double underscore separates the section from the key.
var envSetters = map[string]func(*Config, string) error{
	"MONITOR__TARGET":                 func(c *Config, v string) error { c.Monitor.Target = v; return nil },
	"MONITOR__POLL_INTERVAL":          durationSetter(func(c *Config) *time.Duration { return &c.Monitor.PollInterval }),
	"MONITOR__START_TIMEOUT":          durationSetter(func(c *Config) *time.Duration { return &c.Monitor.StartTimeout }),
	"MONITOR__RESTART_WINDOW":         durationSetter(func(c *Config) *time.Duration { return &c.Monitor.RestartWindow }),
	"MONITOR__COOLDOWN":               durationSetter(func(c *Config) *time.Duration { return &c.Monitor.Cooldown }),
	"MONITOR__MAX_RESTARTS_IN_WINDOW": intSetter(func(c *Config) *int { return &c.Monitor.MaxRestartsInWindow }),
	"MONITOR__MAINTENANCE_FLAG_PATH":  func(c *Config, v string) error { c.Monitor.MaintenanceFlagPath = v; return nil },
	"LOGGING__LEVEL":                  func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"LOGGING__FORMAT":                 func(c *Config, v string) error { c.Logging.Format = v; return nil },
	"LOGGING__FILE":                   func(c *Config, v string) error { c.Logging.File = v; return nil },
	"LOGGING__CONSOLE":                boolSetter(func(c *Config) *bool { return &c.Logging.Console }),
	"SERVER__ENABLED":                 boolSetter(func(c *Config) *bool { return &c.Server.Enabled }),
	"SERVER__ADDRESS":                 func(c *Config, v string) error { c.Server.Address = v; return nil },
	"DATA_DIRECTORY":                  func(c *Config, v string) error { c.DataDirectory = v; return nil },
	"EVENT_HISTORY":                   intSetter(func(c *Config) *int { return &c.EventHistory }),
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for key, set := range envSetters {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		if err := set(cfg, value); err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalid, EnvPrefix, key, err)
		}
	}
	return nil
}

// parseDuration accepts Go duration strings and, for compatibility with
// plain numeric settings, a bare number of seconds.
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}
