package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"servicewatchdog/internal/models"
)

const defaultHistory = 2048

// Collector turns watchdog observations into Prometheus metrics and keeps
// a bounded in-memory history for uptime summaries.
type Collector struct {
	target string

	ticks            prometheus.Counter
	actions          *prometheus.CounterVec
	up               prometheus.Gauge
	restartsInWindow prometheus.Gauge

	mu         sync.RWMutex
	history    []models.Observation
	maxHistory int
}

// NewCollector registers the watchdog metrics with reg.
func NewCollector(reg prometheus.Registerer, target string, maxHistory int) *Collector {
	if maxHistory <= 0 {
		maxHistory = defaultHistory
	}
	labels := prometheus.Labels{"target": target}
	c := &Collector{
		target:     target,
		maxHistory: maxHistory,
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "servicewatchdog",
			Name:        "ticks_total",
			Help:        "Completed watchdog ticks.",
			ConstLabels: labels,
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "servicewatchdog",
			Name:        "actions_total",
			Help:        "Actions taken by the watchdog, by kind.",
			ConstLabels: labels,
		}, []string{"action"}),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "servicewatchdog",
			Name:        "service_up",
			Help:        "1 when the target was last seen running or starting.",
			ConstLabels: labels,
		}),
		restartsInWindow: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "servicewatchdog",
			Name:        "restarts_in_window",
			Help:        "Successful restarts currently inside the rate-limit window.",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(c.ticks, c.actions, c.up, c.restartsInWindow)
	}
	return c
}

// Observe records one tick.
func (c *Collector) Observe(obs models.Observation) {
	c.ticks.Inc()
	c.actions.WithLabelValues(string(obs.Action)).Inc()
	c.restartsInWindow.Set(float64(obs.RestartsInWindow))
	switch {
	case obs.Action == models.ActionRestarted,
		obs.Status == models.StatusRunning,
		obs.Status == models.StatusStartPending:
		c.up.Set(1)
	case obs.Status != "":
		c.up.Set(0)
	}

	c.mu.Lock()
	c.history = append(c.history, obs)
	if len(c.history) > c.maxHistory {
		c.history = append([]models.Observation(nil), c.history[len(c.history)-c.maxHistory:]...)
	}
	c.mu.Unlock()
}

// Observations returns a copy of the retained observations.
func (c *Collector) Observations() []models.Observation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.history) == 0 {
		return nil
	}
	out := make([]models.Observation, len(c.history))
	copy(out, c.history)
	return out
}

// Uptime summarises the retained observations.
func (c *Collector) Uptime() ServiceUptime {
	return ComputeUptime(c.target, c.Observations())
}
