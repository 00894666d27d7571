package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"servicewatchdog/internal/clock"
	"servicewatchdog/internal/config"
	"servicewatchdog/internal/events"
	"servicewatchdog/internal/host"
	"servicewatchdog/internal/logging"
	"servicewatchdog/internal/maintenance"
	"servicewatchdog/internal/metrics"
	"servicewatchdog/internal/models"
	"servicewatchdog/internal/server"
	"servicewatchdog/internal/service"
	"servicewatchdog/internal/storage"
	"servicewatchdog/internal/watchdog"
)

const (
	eventsFile      = "events.json"
	lockFile        = "servicewatchdog.lock"
	serviceName     = "servicewatchdog"
	shutdownTimeout = 5 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor the configured service until stopped",
	Long: `Monitor the configured target service until SIGINT/SIGTERM, or until
the target is no longer installed.

When started by the Windows Service Control Manager the watchdog runs as a
service: Stop and Shutdown end it gracefully and logs also go to the
Windows Event Log under the "servicewatchdog" source.

A target that is missing at startup or disappears later ends the process
with exit code 0 after logging the reason.`,
	RunE: runWatchdog,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWatchdog(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	isService, err := host.IsWindowsService()
	if err != nil {
		return fmt.Errorf("detect service host: %w", err)
	}
	if isService {
		return host.RunAsService(serviceName, func(ctx context.Context) error {
			return serve(ctx, cfg, true)
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, false)
}

// newLogger builds the configured logger. Under the Windows SCM records
// also go to the Event Log.
func newLogger(cfg config.Config, asService bool) (*slog.Logger, func(), error) {
	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise logging: %w", err)
	}
	if !asService {
		return logger, func() { _ = logCloser.Close() }, nil
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	eventHandler, eventCloser, err := logging.OpenEventLog(logging.EventSource, level)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, err
	}
	logger = slog.New(logging.Fanout(logger.Handler(), eventHandler))
	return logger, func() {
		_ = eventCloser.Close()
		_ = logCloser.Close()
	}, nil
}

func serve(ctx context.Context, cfg config.Config, asService bool) error {
	logger, closeLogs, err := newLogger(cfg, asService)
	if err != nil {
		return err
	}
	defer closeLogs()

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	policy := cfg.Policy()

	lock, err := host.AcquireLock(filepath.Join(cfg.DataDirectory, lockFile))
	if err != nil {
		return err
	}
	defer lock.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifier := host.NewSystemdNotifier(logger)
	shutdown := host.New(cancel, notifier, logger)

	clk := clock.Real()
	oracle, err := service.New(clk)
	if err != nil {
		return err
	}

	store, err := storage.NewEventStorage(filepath.Join(cfg.DataDirectory, eventsFile), cfg.EventHistory)
	if err != nil {
		return fmt.Errorf("initialise event journal: %w", err)
	}
	feed := events.NewBroadcaster[models.Event]()
	defer feed.Stop()
	hub := events.NewHub(store, feed, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg, policy.Target, 0)

	wd := watchdog.New(policy, watchdog.Options{
		Oracle:     oracle,
		Shutdowner: shutdown,
		Clock:      clk,
		Logger:     logger,
		Sink:       hub,
		Recorder:   collector,
		RunID:      runID,
	})

	var wg sync.WaitGroup
	if policy.MaintenanceFlagPath != "" {
		watcher := maintenance.NewWatcher(policy.MaintenanceFlagPath, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("maintenance marker watch disabled", "error", err)
			}
		}()
	}

	if cfg.Server.Enabled {
		srv := server.New(server.Options{
			Address:  cfg.Server.Address,
			Policy:   policy,
			Status:   wd,
			Events:   store,
			Uptime:   collector,
			Feed:     feed,
			Gatherer: reg,
			Logger:   logger,
		})
		startServer(ctx, &wg, srv, logger)
	}

	logger.Info("servicewatchdog starting",
		"windows_service", asService,
		"poll_interval", policy.PollInterval.String(),
		"start_timeout", policy.StartTimeout.String(),
		"max_restarts_in_window", policy.MaxRestartsInWindow,
		"restart_window", policy.RestartWindow.String(),
		"cooldown", policy.Cooldown.String(),
		"maintenance_flag_path", policy.MaintenanceFlagPath,
	)
	notifier.Ready()
	notifier.Status("monitoring " + policy.Target)

	runErr := wd.Run(ctx)
	cancel()
	wg.Wait()

	switch {
	case errors.Is(runErr, watchdog.ErrTargetMissing):
		logger.Info("servicewatchdog exiting", "reason", shutdown.Reason())
		return nil
	case runErr != nil:
		return runErr
	}
	logger.Info("servicewatchdog stopped")
	return nil
}

func startServer(ctx context.Context, wg *sync.WaitGroup, srv *server.Server, logger *slog.Logger) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := srv.Run(); err != nil {
			logger.Error("status api stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status api shutdown", "error", err)
		}
	}()
}
