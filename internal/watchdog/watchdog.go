// Package watchdog runs the poll/decide/act loop that keeps a single
// service running.
//
// Each tick checks that the target still exists, honors the maintenance
// gate, reads the service status and, when the service is stopped, either
// restarts it or enters a cooldown if too many restarts happened recently.
// The loop owns its restart limiter; other components only see published
// Snapshot copies.
package watchdog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"servicewatchdog/internal/clock"
	"servicewatchdog/internal/limiter"
	"servicewatchdog/internal/maintenance"
	"servicewatchdog/internal/models"
	"servicewatchdog/internal/service"
)

// ErrTargetMissing is returned by Run when the target service is not
// installed at startup or disappears while being monitored. Shutdown has
// already been requested when it is returned.
var ErrTargetMissing = errors.New("target service is not installed")

// Shutdowner asks the hosting process to stop gracefully.
type Shutdowner interface {
	RequestShutdown(reason string)
}

// EventSink receives every event the loop emits.
type EventSink interface {
	Publish(models.Event)
}

// Recorder receives one observation per completed tick.
type Recorder interface {
	Observe(models.Observation)
}

// Phase is the lifecycle phase of the loop.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseActive       Phase = "active"
	PhaseTerminated   Phase = "terminated"
)

// Snapshot is a point-in-time copy of the loop's state.
type Snapshot struct {
	Target           string               `json:"target"`
	RunID            string               `json:"run_id,omitempty"`
	Phase            Phase                `json:"phase"`
	LastTick         time.Time            `json:"last_tick,omitempty"`
	LastStatus       models.ServiceStatus `json:"last_status,omitempty"`
	LastAction       models.TickAction    `json:"last_action,omitempty"`
	Suppressed       bool                 `json:"suppressed"`
	RestartsInWindow int                  `json:"restarts_in_window"`
	LastRestart      time.Time            `json:"last_restart,omitempty"`
	CooldownUntil    time.Time            `json:"cooldown_until,omitempty"`
}

// Options carries the collaborators of a Watchdog. Oracle and Shutdowner
// are required; the rest default to no-ops or real implementations.
type Options struct {
	Oracle     service.Oracle
	Shutdowner Shutdowner
	Clock      clock.Clock
	Logger     *slog.Logger
	Sink       EventSink
	Recorder   Recorder
	RunID      string
}

// Watchdog supervises one service according to a MonitorPolicy.
type Watchdog struct {
	policy   models.MonitorPolicy
	oracle   service.Oracle
	host     Shutdowner
	gate     *maintenance.Gate
	limiter  *limiter.RestartLimiter
	clock    clock.Clock
	logger   *slog.Logger
	sink     EventSink
	recorder Recorder
	runID    string

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a watchdog for policy.
func New(policy models.MonitorPolicy, opts Options) *Watchdog {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("target", policy.Target)
	return &Watchdog{
		policy:   policy,
		oracle:   opts.Oracle,
		host:     opts.Shutdowner,
		gate:     maintenance.NewGate(policy.MaintenanceFlagPath, logger),
		limiter:  limiter.New(policy.MaxRestartsInWindow, policy.RestartWindow),
		clock:    opts.Clock,
		logger:   logger,
		sink:     opts.Sink,
		recorder: opts.Recorder,
		runID:    opts.RunID,
		snapshot: Snapshot{
			Target: policy.Target,
			RunID:  opts.RunID,
			Phase:  PhaseInitializing,
		},
	}
}

// Snapshot returns a copy of the most recently published state.
func (w *Watchdog) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// Run monitors the target until ctx is cancelled or the target is gone.
// Cancellation is a clean exit and returns nil. ErrTargetMissing is
// returned after shutdown has been requested for a missing target.
func (w *Watchdog) Run(ctx context.Context) error {
	if !w.oracle.Exists(ctx, w.policy.Target) {
		if ctx.Err() != nil {
			w.setPhase(PhaseTerminated)
			return nil
		}
		w.terminate(ctx, "target service is not installed; stopping watchdog", nil)
		return ErrTargetMissing
	}

	w.setPhase(PhaseActive)
	w.emit(ctx, slog.LevelInfo, models.Event{
		Kind:    models.EventStarted,
		Message: "monitoring started",
	})

	for {
		if ctx.Err() != nil {
			w.setPhase(PhaseTerminated)
			return nil
		}

		wait, err := w.tick(ctx)
		if errors.Is(err, ErrTargetMissing) {
			return err
		}
		if !w.sleep(ctx, wait) {
			w.setPhase(PhaseTerminated)
			return nil
		}
	}
}

// tick runs one poll/decide/act cycle and returns how long to suspend
// before the next one.
func (w *Watchdog) tick(ctx context.Context) (time.Duration, error) {
	target := w.policy.Target
	obs := models.Observation{
		Timestamp: w.clock.Now(),
		Target:    target,
		Action:    models.ActionNone,
	}
	defer func() { w.publish(obs) }()

	if !w.oracle.Exists(ctx, target) {
		// A cancelled query reads as missing; let Run exit instead.
		if ctx.Err() != nil {
			return 0, nil
		}
		obs.Action = models.ActionTerminated
		w.terminate(ctx, "target service no longer exists; stopping watchdog", nil)
		return 0, ErrTargetMissing
	}
	obs.Exists = true

	if w.gate.IsSuppressed() {
		obs.Action = models.ActionSuppressed
		w.emit(ctx, slog.LevelWarn, models.Event{
			Kind:    models.EventMaintenance,
			Message: "maintenance marker present; restarts suppressed",
		}, slog.String("marker", w.gate.Path()))
		return w.policy.PollInterval, nil
	}

	status, err := w.oracle.Status(ctx, target)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			obs.Exists = false
			obs.Action = models.ActionTerminated
			w.terminate(ctx, "target service not found; stopping watchdog", err)
			return 0, ErrTargetMissing
		}
		if ctx.Err() != nil {
			return w.policy.PollInterval, nil
		}
		obs.Action = models.ActionFailed
		w.emit(ctx, slog.LevelError, models.Event{
			Kind:    models.EventTickFailed,
			Message: "error monitoring target service",
			Error:   err.Error(),
		})
		return w.policy.PollInterval, nil
	}
	obs.Status = status

	if !status.NeedsRestart() {
		return w.policy.PollInterval, nil
	}

	now := w.clock.Now()
	if w.limiter.IsBursting(now) {
		obs.Action = models.ActionCooldown
		return w.enterCooldown(ctx, now, status), nil
	}

	obs.Action = w.restart(ctx, status)
	return w.policy.PollInterval, nil
}

// enterCooldown logs the burst and returns the suspension that replaces
// this tick's poll wait. A zero cooldown falls back to the poll interval.
func (w *Watchdog) enterCooldown(ctx context.Context, now time.Time, status models.ServiceStatus) time.Duration {
	wait := w.policy.Cooldown
	if wait <= 0 {
		wait = w.policy.PollInterval
	}
	w.mu.Lock()
	w.snapshot.CooldownUntil = now.Add(wait)
	w.mu.Unlock()

	w.emit(ctx, slog.LevelWarn, models.Event{
		Kind:    models.EventCooldown,
		Message: "restart threshold exceeded; cooling down",
		Status:  status,
	},
		slog.Int("max_restarts", w.policy.MaxRestartsInWindow),
		slog.Duration("window", w.policy.RestartWindow),
		slog.Duration("cooldown", wait),
	)
	return wait
}

// restart starts the stopped target and waits for it to report running.
// Only a confirmed running service counts against the limiter.
func (w *Watchdog) restart(ctx context.Context, status models.ServiceStatus) models.TickAction {
	target := w.policy.Target
	w.emit(ctx, slog.LevelWarn, models.Event{
		Kind:    models.EventServiceStopped,
		Message: "service stopped; attempting start",
		Status:  status,
	})

	if err := w.oracle.Start(ctx, target); err != nil {
		w.emit(ctx, slog.LevelError, models.Event{
			Kind:    models.EventRestartFailed,
			Message: "could not start service",
			Status:  status,
			Error:   err.Error(),
		})
		return models.ActionRestartFailed
	}

	running, err := w.oracle.AwaitRunning(ctx, target, w.policy.StartTimeout)
	if err != nil && ctx.Err() != nil {
		w.logger.Info("shutdown requested while waiting for service to start")
		return models.ActionRestartFailed
	}
	if err != nil || !running {
		event := models.Event{
			Kind:    models.EventRestartFailed,
			Message: "service did not reach running state",
			Status:  status,
		}
		if err != nil {
			event.Error = err.Error()
		} else {
			event.Error = "timed out after " + w.policy.StartTimeout.String()
		}
		w.emit(ctx, slog.LevelError, event)
		return models.ActionRestartFailed
	}

	now := w.clock.Now()
	w.limiter.Record(now)
	w.mu.Lock()
	w.snapshot.LastRestart = now
	w.mu.Unlock()

	w.emit(ctx, slog.LevelInfo, models.Event{
		Kind:    models.EventRestartSucceeded,
		Message: "service started",
		Status:  models.StatusRunning,
	})
	return models.ActionRestarted
}

// terminate records the fatal condition and asks the host to stop.
func (w *Watchdog) terminate(ctx context.Context, msg string, cause error) {
	event := models.Event{
		Kind:    models.EventTargetMissing,
		Message: msg,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	w.emit(ctx, slog.LevelError, event)
	w.setPhase(PhaseTerminated)
	if w.host != nil {
		w.host.RequestShutdown(msg)
	}
}

// sleep suspends for d and reports false if ctx was cancelled first.
func (w *Watchdog) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-w.clock.After(d):
		return true
	}
}

func (w *Watchdog) publish(obs models.Observation) {
	obs.RestartsInWindow = w.limiter.Count(obs.Timestamp)

	w.mu.Lock()
	w.snapshot.LastTick = obs.Timestamp
	w.snapshot.LastAction = obs.Action
	w.snapshot.Suppressed = obs.Action == models.ActionSuppressed
	if obs.Action != models.ActionCooldown {
		w.snapshot.CooldownUntil = time.Time{}
	}
	w.snapshot.RestartsInWindow = obs.RestartsInWindow
	if obs.Status != "" {
		w.snapshot.LastStatus = obs.Status
	}
	w.mu.Unlock()

	if w.recorder != nil {
		w.recorder.Observe(obs)
	}
}

func (w *Watchdog) setPhase(p Phase) {
	w.mu.Lock()
	w.snapshot.Phase = p
	w.mu.Unlock()
}

// emit logs the event and forwards it to the sink.
func (w *Watchdog) emit(ctx context.Context, level slog.Level, event models.Event, extra ...slog.Attr) {
	event.ID = uuid.NewString()
	event.Level = level.String()
	event.RunID = w.runID
	event.Timestamp = w.clock.Now().UTC()
	event.Target = w.policy.Target

	attrs := make([]slog.Attr, 0, len(extra)+3)
	attrs = append(attrs, slog.String("event", string(event.Kind)))
	if event.Status != "" {
		attrs = append(attrs, slog.String("status", string(event.Status)))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	attrs = append(attrs, extra...)
	w.logger.LogAttrs(ctx, level, event.Message, attrs...)

	if w.sink != nil {
		w.sink.Publish(event)
	}
}
