//go:build !linux && !windows

package service

import (
	"fmt"
	"runtime"

	"servicewatchdog/internal/clock"
)

// New returns the Oracle for the host's service manager.
func New(clock.Clock) (Oracle, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, runtime.GOOS)
}
