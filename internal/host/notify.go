package host

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier reports lifecycle changes to the service manager hosting the
// watchdog.
type Notifier interface {
	Ready()
	Status(msg string)
	Stopping()
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Ready()        {}
func (NopNotifier) Status(string) {}
func (NopNotifier) Stopping()     {}

// SystemdNotifier sends sd_notify messages. Outside a Type=notify unit
// NOTIFY_SOCKET is unset and every call is a no-op.
type SystemdNotifier struct {
	logger *slog.Logger
	send   func(unsetEnv bool, state string) (bool, error)
}

// NewSystemdNotifier returns a notifier backed by daemon.SdNotify.
func NewSystemdNotifier(logger *slog.Logger) *SystemdNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemdNotifier{logger: logger, send: daemon.SdNotify}
}

func (n *SystemdNotifier) Ready() { n.notify(daemon.SdNotifyReady) }

func (n *SystemdNotifier) Status(msg string) { n.notify("STATUS=" + msg) }

func (n *SystemdNotifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

func (n *SystemdNotifier) notify(state string) {
	if _, err := n.send(false, state); err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	}
}
