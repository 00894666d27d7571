//go:build !windows

package host

import (
	"context"
	"errors"
)

// IsWindowsService is always false off Windows.
func IsWindowsService() (bool, error) {
	return false, nil
}

// RunAsService is only available on Windows.
func RunAsService(string, func(ctx context.Context) error) error {
	return errors.New("windows service hosting is not available on this platform")
}
