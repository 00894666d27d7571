package service

import (
	"context"
	"time"

	"servicewatchdog/internal/clock"
	"servicewatchdog/internal/models"
)

// DefaultPollInterval is how often AwaitRunning re-queries the status.
const DefaultPollInterval = 250 * time.Millisecond

// StatusFunc queries the current status of a service.
type StatusFunc func(ctx context.Context, name string) (models.ServiceStatus, error)

// PollRunning polls status until it reports running, the timeout elapses,
// or ctx is cancelled. The status is always checked at least once.
func PollRunning(ctx context.Context, clk clock.Clock, name string, timeout, interval time.Duration, status StatusFunc) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := clk.Now().Add(timeout)

	for {
		current, err := status(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, err
		}
		if current == models.StatusRunning {
			return true, nil
		}

		remaining := deadline.Sub(clk.Now())
		if remaining <= 0 {
			return false, nil
		}
		wait := interval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-clk.After(wait):
		}
	}
}
