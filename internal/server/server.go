package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"servicewatchdog/internal/metrics"
	"servicewatchdog/internal/models"
	"servicewatchdog/internal/watchdog"
)

// StatusSource exposes the watchdog's latest state.
type StatusSource interface {
	Snapshot() watchdog.Snapshot
}

// EventSource returns the most recent journaled events.
type EventSource interface {
	Latest(n int) []models.Event
}

// UptimeSource summarises recent observations.
type UptimeSource interface {
	Uptime() metrics.ServiceUptime
}

// Feed delivers live events to websocket clients.
type Feed interface {
	Subscribe() (chan models.Event, error)
	Unsubscribe(chan models.Event)
}

// Options configures the status API.
type Options struct {
	Address  string
	Policy   models.MonitorPolicy
	Status   StatusSource
	Events   EventSource
	Uptime   UptimeSource
	Feed     Feed
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server serves the read-only status API.
type Server struct {
	httpServer   *http.Server
	policy       policyView
	status       StatusSource
	events       EventSource
	uptime       UptimeSource
	feed         Feed
	gatherer     prometheus.Gatherer
	logger       *slog.Logger
	historyLimit int
}

// New creates a configured HTTP server for the watchdog.
func New(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              opts.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		policy:       newPolicyView(opts.Policy),
		status:       opts.Status,
		events:       opts.Events,
		uptime:       opts.Uptime,
		feed:         opts.Feed,
		gatherer:     opts.Gatherer,
		logger:       opts.Logger,
		historyLimit: 200,
	}
	s.registerRoutes(mux)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic. A graceful Shutdown is not an error.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("status api listening", "address", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/events/ws", s.handleEventsWS)
	mux.HandleFunc("/api/uptime", s.handleUptime)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

type policyView struct {
	Target              string `json:"target"`
	PollInterval        string `json:"poll_interval"`
	StartTimeout        string `json:"start_timeout"`
	MaxRestartsInWindow int    `json:"max_restarts_in_window"`
	RestartWindow       string `json:"restart_window"`
	Cooldown            string `json:"cooldown"`
	MaintenanceFlagPath string `json:"maintenance_flag_path,omitempty"`
}

func newPolicyView(p models.MonitorPolicy) policyView {
	return policyView{
		Target:              p.Target,
		PollInterval:        p.PollInterval.String(),
		StartTimeout:        p.StartTimeout.String(),
		MaxRestartsInWindow: p.MaxRestartsInWindow,
		RestartWindow:       p.RestartWindow.String(),
		Cooldown:            p.Cooldown.String(),
		MaintenanceFlagPath: p.MaintenanceFlagPath,
	}
}

type statusResponse struct {
	Snapshot    watchdog.Snapshot `json:"snapshot"`
	Policy      policyView        `json:"policy"`
	GeneratedAt time.Time         `json:"generated_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	phase := watchdog.PhaseActive
	if s.status != nil {
		phase = s.status.Snapshot().Phase
	}
	code := http.StatusOK
	if phase == watchdog.PhaseTerminated {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"phase": phase})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Policy: s.policy, GeneratedAt: time.Now().UTC()}
	if s.status != nil {
		resp.Snapshot = s.status.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, []models.Event{})
		return
	}
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.events.Latest(limit))
}

func (s *Server) handleUptime(w http.ResponseWriter, _ *http.Request) {
	if s.uptime == nil {
		writeJSON(w, http.StatusOK, metrics.ComputeUptime(s.policy.Target, nil))
		return
	}
	writeJSON(w, http.StatusOK, s.uptime.Uptime())
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
