// Package service adapts the host's service manager to the small set of
// operations the watchdog needs.
package service

import (
	"context"
	"errors"
	"time"

	"servicewatchdog/internal/models"
)

var (
	// ErrNotFound reports that the service is not installed, including the
	// case where it disappeared after an existence check.
	ErrNotFound = errors.New("service not found")

	// ErrStartFailed reports that the service manager refused or failed
	// to launch the service.
	ErrStartFailed = errors.New("service failed to start")

	// ErrUnsupported reports that no service manager adapter exists for
	// this platform.
	ErrUnsupported = errors.New("service control is not supported on this platform")
)

// Oracle reports on and controls a named service.
type Oracle interface {
	// Exists reports whether the service is installed. Any failure to
	// determine this is reported as false.
	Exists(ctx context.Context, name string) bool

	// Status returns the current run state. It wraps ErrNotFound when the
	// service is not installed.
	Status(ctx context.Context, name string) (models.ServiceStatus, error)

	// Start asks the service manager to launch the service. Failures wrap
	// ErrStartFailed.
	Start(ctx context.Context, name string) error

	// AwaitRunning blocks until the service reports running or timeout
	// elapses. A timeout is (false, nil); cancellation of ctx is
	// (false, ctx.Err()).
	AwaitRunning(ctx context.Context, name string, timeout time.Duration) (bool, error)
}
