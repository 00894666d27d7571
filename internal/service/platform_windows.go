//go:build windows

package service

import "servicewatchdog/internal/clock"

// New returns the Oracle for the host's service manager.
func New(clk clock.Clock) (Oracle, error) {
	return NewSCM(clk), nil
}
