package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"servicewatchdog/internal/clock"
	"servicewatchdog/internal/models"
)

// CommandRunner executes systemctl with args and returns its output.
type CommandRunner func(ctx context.Context, args ...string) ([]byte, error)

// Systemd controls units through systemctl.
type Systemd struct {
	run          CommandRunner
	clock        clock.Clock
	pollInterval time.Duration
}

// NewSystemd returns an Oracle backed by the systemctl binary.
func NewSystemd(clk clock.Clock) *Systemd {
	return NewSystemdWithRunner(clk, execSystemctl)
}

// NewSystemdWithRunner returns a systemd Oracle that shells out through run.
func NewSystemdWithRunner(clk clock.Clock, run CommandRunner) *Systemd {
	if clk == nil {
		clk = clock.Real()
	}
	return &Systemd{run: run, clock: clk, pollInterval: DefaultPollInterval}
}

func execSystemctl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
}

type unitState struct {
	load   string
	active string
}

func (s *Systemd) show(ctx context.Context, name string) (unitState, error) {
	out, err := s.run(ctx, "show", "--property=LoadState,ActiveState", "--", name)
	if err != nil {
		return unitState{}, fmt.Errorf("systemctl show %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return parseShow(out), nil
}

func parseShow(out []byte) unitState {
	var st unitState
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "LoadState":
			st.load = value
		case "ActiveState":
			st.active = value
		}
	}
	return st
}

func (st unitState) installed() bool {
	return st.load != "" && st.load != "not-found"
}

func mapActiveState(active string) models.ServiceStatus {
	switch active {
	case "active", "reloading":
		return models.StatusRunning
	case "activating":
		return models.StatusStartPending
	case "deactivating":
		return models.StatusStopPending
	case "inactive", "failed":
		return models.StatusStopped
	default:
		return models.StatusOther
	}
}

// Exists reports whether systemd knows the unit.
func (s *Systemd) Exists(ctx context.Context, name string) bool {
	st, err := s.show(ctx, name)
	if err != nil {
		return false
	}
	return st.installed()
}

// Status returns the unit's run state.
func (s *Systemd) Status(ctx context.Context, name string) (models.ServiceStatus, error) {
	st, err := s.show(ctx, name)
	if err != nil {
		return "", err
	}
	if !st.installed() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return mapActiveState(st.active), nil
}

// Start enqueues a start job without waiting for it.
func (s *Systemd) Start(ctx context.Context, name string) error {
	out, err := s.run(ctx, "start", "--no-block", "--", name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrStartFailed, name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// AwaitRunning polls the unit until it is active or timeout elapses.
func (s *Systemd) AwaitRunning(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	return PollRunning(ctx, s.clock, name, timeout, s.pollInterval, s.Status)
}
