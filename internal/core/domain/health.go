package domain

import "time"

// HealthStatus is the reported state of a pipeline.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is the latest probe outcome for a pipeline. Unlike log
// entries it is overwritten per pipeline on each check (latest wins).
type HealthCheckResult struct {
	Pipeline      string         `json:"pipeline"        db:"pipeline"`
	Status        HealthStatus   `json:"status"          db:"status"`
	LastCheck     time.Time      `json:"last_check"      db:"last_check"`
	ResponseTime  time.Duration  `json:"response_time"   db:"response_time"`
	ErrorRate     float64        `json:"error_rate"      db:"error_rate"`
	UptimePercent float64        `json:"uptime_percent"  db:"uptime_percent"`
	Details       map[string]any `json:"details,omitempty"`
}
