package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
monitor:
  target: LPDSVC
  poll_interval: 2s
  start_timeout: 45s
  max_restarts_in_window: 3
  restart_window: 1m
  cooldown: 15m
  maintenance_flag_path: /var/run/lpd.maintenance
logging:
  level: debug
server:
  address: 127.0.0.1:9999
`)

	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := cfg.Policy()
	if p.Target != "LPDSVC" || p.PollInterval != 2*time.Second || p.StartTimeout != 45*time.Second {
		t.Fatalf("policy = %+v", p)
	}
	if p.MaxRestartsInWindow != 3 || p.RestartWindow != time.Minute || p.Cooldown != 15*time.Minute {
		t.Fatalf("policy = %+v", p)
	}
	if p.MaintenanceFlagPath != "/var/run/lpd.maintenance" {
		t.Fatalf("maintenance path = %q", p.MaintenanceFlagPath)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if !cfg.Server.Enabled || cfg.Server.Address != "127.0.0.1:9999" {
		t.Fatalf("server = %+v", cfg.Server)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
data_directory = "/var/lib/servicewatchdog"

[monitor]
target = "cups"
poll_interval = "10s"
cooldown = "0s"
`)

	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Monitor.Target != "cups" || cfg.Monitor.PollInterval != 10*time.Second || cfg.Monitor.Cooldown != 0 {
		t.Fatalf("monitor = %+v", cfg.Monitor)
	}
	if cfg.Monitor.StartTimeout != 30*time.Second {
		t.Fatalf("unset start_timeout = %v, want default", cfg.Monitor.StartTimeout)
	}
	if cfg.DataDirectory != "/var/lib/servicewatchdog" {
		t.Fatalf("data directory = %q", cfg.DataDirectory)
	}
}

func TestMissingFileUsesDefaultsAndEnv(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), envMap(map[string]string{
		"SM_MONITOR__TARGET":                 "lpd",
		"SM_MONITOR__POLL_INTERVAL":          "7",
		"SM_MONITOR__MAX_RESTARTS_IN_WINDOW": "2",
		"SM_MONITOR__COOLDOWN":               "90s",
		"SM_SERVER__ENABLED":                 "false",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Monitor.Target != "lpd" || cfg.Monitor.PollInterval != 7*time.Second {
		t.Fatalf("monitor = %+v", cfg.Monitor)
	}
	if cfg.Monitor.MaxRestartsInWindow != 2 || cfg.Monitor.Cooldown != 90*time.Second {
		t.Fatalf("monitor = %+v", cfg.Monitor)
	}
	if cfg.Server.Enabled {
		t.Fatal("server should be disabled by env override")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "monitor:\n  target: from-file\n")
	cfg, err := load(path, envMap(map[string]string{"SM_MONITOR__TARGET": "from-env"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Monitor.Target != "from-env" {
		t.Fatalf("target = %q, want from-env", cfg.Monitor.Target)
	}
}

func TestBadEnvValue(t *testing.T) {
	_, err := load("", envMap(map[string]string{
		"SM_MONITOR__TARGET":        "lpd",
		"SM_MONITOR__START_TIMEOUT": "soon",
	}))
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "SM_MONITOR__START_TIMEOUT") {
		t.Fatalf("error = %v", err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing target", "monitor: {}\n", "monitor.target"},
		{"zero poll", "monitor: {target: x, poll_interval: 0s}\n", "poll_interval"},
		{"zero start timeout", "monitor: {target: x, start_timeout: 0s}\n", "start_timeout"},
		{"zero threshold", "monitor: {target: x, max_restarts_in_window: 0}\n", "max_restarts_in_window"},
		{"zero window", "monitor: {target: x, restart_window: 0s}\n", "restart_window"},
		{"negative cooldown", "monitor: {target: x, cooldown: -1s}\n", "cooldown"},
		{"bad level", "monitor: {target: x}\nlogging: {level: loud}\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeFile(t, "config.yaml", tt.yaml), noEnv)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("error = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseErrorIsReported(t *testing.T) {
	_, err := load(writeFile(t, "config.yaml", "monitor: [unbalanced\n"), noEnv)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("error = %v, want parse error", err)
	}
}
