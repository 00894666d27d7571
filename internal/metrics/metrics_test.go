package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"servicewatchdog/internal/models"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func obs(sec int, status models.ServiceStatus, action models.TickAction) models.Observation {
	return models.Observation{
		Timestamp: epoch.Add(time.Duration(sec) * time.Second),
		Target:    "lpd",
		Exists:    true,
		Status:    status,
		Action:    action,
	}
}

func TestComputeUptime(t *testing.T) {
	history := []models.Observation{
		obs(0, models.StatusRunning, models.ActionNone),
		obs(5, models.StatusStopped, models.ActionRestarted),
		obs(10, models.StatusRunning, models.ActionNone),
		obs(15, "", models.ActionSuppressed),
		obs(20, models.StatusStopped, models.ActionCooldown),
	}

	got := ComputeUptime("lpd", history)
	if got.TotalChecks != 5 || got.Running != 2 || got.NotRunning != 2 || got.Suppressed != 1 {
		t.Fatalf("counts = %+v", got)
	}
	if got.UptimePercent != 50 {
		t.Fatalf("uptime = %v, want 50", got.UptimePercent)
	}
	if got.Restarts != 1 || got.Cooldowns != 1 {
		t.Fatalf("actions = %+v", got)
	}
	if got.LastStatus != string(models.StatusStopped) || got.LastUpdated != "2026-01-01T00:00:20Z" {
		t.Fatalf("last = %q at %q", got.LastStatus, got.LastUpdated)
	}
}

func TestComputeUptimeEmpty(t *testing.T) {
	got := ComputeUptime("lpd", nil)
	if got.TotalChecks != 0 || got.UptimePercent != 0 || got.LastUpdated != "" {
		t.Fatalf("empty summary = %+v", got)
	}
}

func TestCollectorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "lpd", 0)

	c.Observe(obs(0, models.StatusStopped, models.ActionRestarted))
	if got := testutil.ToFloat64(c.up); got != 1 {
		t.Fatalf("service_up after restart = %v, want 1", got)
	}
	c.Observe(obs(5, models.StatusStopped, models.ActionCooldown))
	if got := testutil.ToFloat64(c.up); got != 0 {
		t.Fatalf("service_up while stopped = %v, want 0", got)
	}
	c.Observe(obs(10, "", models.ActionSuppressed))
	if got := testutil.ToFloat64(c.up); got != 0 {
		t.Fatalf("suppressed tick changed service_up to %v", got)
	}

	if got := testutil.ToFloat64(c.ticks); got != 3 {
		t.Fatalf("ticks_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.actions.WithLabelValues(string(models.ActionCooldown))); got != 1 {
		t.Fatalf("cooldown actions = %v, want 1", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Fatalf("GatherAndCount = %d, %v", n, err)
	}
}

func TestCollectorHistoryBounded(t *testing.T) {
	c := NewCollector(nil, "lpd", 2)
	for i := 0; i < 5; i++ {
		c.Observe(obs(i, models.StatusRunning, models.ActionNone))
	}
	got := c.Observations()
	if len(got) != 2 || !got[0].Timestamp.Equal(epoch.Add(3*time.Second)) {
		t.Fatalf("history = %+v", got)
	}
	if up := c.Uptime(); up.UptimePercent != 100 {
		t.Fatalf("uptime = %v, want 100", up.UptimePercent)
	}
}
