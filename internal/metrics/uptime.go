package metrics

import (
	"math"
	"time"

	"servicewatchdog/internal/models"
)

// ServiceUptime summarises how the target looked across observed ticks.
type ServiceUptime struct {
	Target        string  `json:"target"`
	UptimePercent float64 `json:"uptime_percent"`
	TotalChecks   int     `json:"total_checks"`
	Running       int     `json:"running"`
	NotRunning    int     `json:"not_running"`
	Suppressed    int     `json:"suppressed"`
	Restarts      int     `json:"restarts"`
	FailedStarts  int     `json:"failed_starts"`
	Cooldowns     int     `json:"cooldowns"`
	LastStatus    string  `json:"last_status,omitempty"`
	LastUpdated   string  `json:"last_updated,omitempty"`
}

// ComputeUptime aggregates observations into an uptime summary. Ticks where
// the status was not queried (maintenance, termination, query failure) are
// counted but excluded from the uptime percentage.
func ComputeUptime(target string, observations []models.Observation) ServiceUptime {
	result := ServiceUptime{Target: target}

	var lastTime time.Time
	for _, obs := range observations {
		result.TotalChecks++
		switch obs.Action {
		case models.ActionSuppressed:
			result.Suppressed++
		case models.ActionRestarted:
			result.Restarts++
		case models.ActionRestartFailed:
			result.FailedStarts++
		case models.ActionCooldown:
			result.Cooldowns++
		}
		if obs.Status == "" {
			continue
		}
		if obs.Status == models.StatusRunning || obs.Status == models.StatusStartPending {
			result.Running++
		} else {
			result.NotRunning++
		}
		result.LastStatus = string(obs.Status)
		lastTime = obs.Timestamp
	}

	if sampled := result.Running + result.NotRunning; sampled > 0 {
		result.UptimePercent = round2(float64(result.Running) / float64(sampled) * 100)
	}
	if !lastTime.IsZero() {
		result.LastUpdated = lastTime.UTC().Format(time.RFC3339)
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
