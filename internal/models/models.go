package models

import (
	"time"
)

// MonitorPolicy is the immutable supervision policy for the target service.
type MonitorPolicy struct {
	Target              string        `yaml:"target" toml:"target" json:"target"`
	PollInterval        time.Duration `yaml:"poll_interval" toml:"poll_interval" json:"poll_interval"`
	StartTimeout        time.Duration `yaml:"start_timeout" toml:"start_timeout" json:"start_timeout"`
	MaxRestartsInWindow int           `yaml:"max_restarts_in_window" toml:"max_restarts_in_window" json:"max_restarts_in_window"`
	RestartWindow       time.Duration `yaml:"restart_window" toml:"restart_window" json:"restart_window"`
	Cooldown            time.Duration `yaml:"cooldown" toml:"cooldown" json:"cooldown"`
	MaintenanceFlagPath string        `yaml:"maintenance_flag_path" toml:"maintenance_flag_path" json:"maintenance_flag_path,omitempty"`
}

// ServiceStatus is the run state reported by the service manager.
type ServiceStatus string

const (
	StatusRunning      ServiceStatus = "running"
	StatusStopped      ServiceStatus = "stopped"
	StatusStartPending ServiceStatus = "start_pending"
	StatusStopPending  ServiceStatus = "stop_pending"
	StatusOther        ServiceStatus = "other"
)

// NeedsRestart reports whether the status is one the watchdog acts on.
func (s ServiceStatus) NeedsRestart() bool {
	return s == StatusStopped || s == StatusStopPending
}

// TickAction is the single action the watchdog took during a tick.
type TickAction string

const (
	ActionNone          TickAction = "none"
	ActionSuppressed    TickAction = "suppressed"
	ActionRestarted     TickAction = "restarted"
	ActionRestartFailed TickAction = "restart_failed"
	ActionCooldown      TickAction = "cooldown"
	ActionTerminated    TickAction = "terminated"
	ActionFailed        TickAction = "failed"
)

// Observation captures the facts seen and the action taken in one tick.
type Observation struct {
	Timestamp        time.Time     `json:"timestamp"`
	Target           string        `json:"target"`
	Exists           bool          `json:"exists"`
	Status           ServiceStatus `json:"status,omitempty"`
	Action           TickAction    `json:"action"`
	RestartsInWindow int           `json:"restarts_in_window"`
}

// EventKind classifies watchdog events.
type EventKind string

const (
	EventStarted          EventKind = "monitoring_started"
	EventTargetMissing    EventKind = "target_missing"
	EventMaintenance      EventKind = "maintenance_suppressed"
	EventServiceStopped   EventKind = "service_stopped"
	EventCooldown         EventKind = "cooldown"
	EventRestartSucceeded EventKind = "restart_succeeded"
	EventRestartFailed    EventKind = "restart_failed"
	EventTickFailed       EventKind = "tick_failed"
)

// Event is an operator-facing record of something the watchdog did or saw.
type Event struct {
	ID        string        `json:"id"`
	RunID     string        `json:"run_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Level     string        `json:"level"`
	Kind      EventKind     `json:"kind"`
	Target    string        `json:"target"`
	Message   string        `json:"message"`
	Status    ServiceStatus `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
}
