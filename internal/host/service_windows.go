//go:build windows

package host

import (
	"context"

	"golang.org/x/sys/windows/svc"
)

// IsWindowsService reports whether the process was started by the Service
// Control Manager.
func IsWindowsService() (bool, error) {
	return svc.IsWindowsService()
}

// RunAsService runs fn under the SCM control dispatcher. Stop and Shutdown
// requests cancel fn's context; the service stops once fn returns. The
// error is fn's.
func RunAsService(name string, fn func(ctx context.Context) error) error {
	h := &scmHandler{run: fn}
	if err := svc.Run(name, h); err != nil {
		return err
	}
	return h.err
}

type scmHandler struct {
	run func(ctx context.Context) error
	err error
}

func (h *scmHandler) Execute(_ []string, requests <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	status <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.run(ctx) }()

	status <- svc.Status{State: svc.Running, Accepts: accepted}

	for {
		select {
		case err := <-done:
			h.err = err
			status <- svc.Status{State: svc.StopPending}
			if err != nil {
				return true, 1
			}
			return false, 0
		case req := <-requests:
			switch req.Cmd {
			case svc.Interrogate:
				status <- req.CurrentStatus
			case svc.Stop, svc.Shutdown:
				status <- svc.Status{State: svc.StopPending}
				cancel()
			}
		}
	}
}
