//go:build windows

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"servicewatchdog/internal/clock"
	"servicewatchdog/internal/models"
)

// SCM controls services through the Windows Service Control Manager.
type SCM struct {
	clock        clock.Clock
	pollInterval time.Duration
}

// NewSCM returns an Oracle backed by the Service Control Manager.
func NewSCM(clk clock.Clock) *SCM {
	if clk == nil {
		clk = clock.Real()
	}
	return &SCM{clock: clk, pollInterval: DefaultPollInterval}
}

// Exists reports whether a service with this name is registered. Names are
// compared case-insensitively, as the SCM does.
func (s *SCM) Exists(_ context.Context, name string) bool {
	m, err := mgr.Connect()
	if err != nil {
		return false
	}
	defer m.Disconnect()

	names, err := m.ListServices()
	if err != nil {
		return false
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (s *SCM) open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("connect to service manager: %w", err)
	}
	h, err := m.OpenService(name)
	if err != nil {
		m.Disconnect()
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return m, h, nil
}

// Status returns the service's run state.
func (s *SCM) Status(_ context.Context, name string) (models.ServiceStatus, error) {
	m, h, err := s.open(name)
	if err != nil {
		return "", err
	}
	defer m.Disconnect()
	defer h.Close()

	st, err := h.Query()
	if err != nil {
		return "", fmt.Errorf("query service %s: %w", name, err)
	}
	return mapSvcState(st.State), nil
}

func mapSvcState(state svc.State) models.ServiceStatus {
	switch state {
	case svc.Running:
		return models.StatusRunning
	case svc.StartPending:
		return models.StatusStartPending
	case svc.StopPending:
		return models.StatusStopPending
	case svc.Stopped:
		return models.StatusStopped
	default:
		return models.StatusOther
	}
}

// Start asks the SCM to start the service.
func (s *SCM) Start(_ context.Context, name string) error {
	m, h, err := s.open(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	defer m.Disconnect()
	defer h.Close()

	if err := h.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStartFailed, name, err)
	}
	return nil
}

// AwaitRunning polls the service until it is running or timeout elapses.
func (s *SCM) AwaitRunning(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	return PollRunning(ctx, s.clock, name, timeout, s.pollInterval, s.Status)
}
