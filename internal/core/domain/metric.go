package domain

import "time"

// Metric names used by threshold definitions. Samples expose their gauges
// under these names so thresholds can address them uniformly.
const (
	MetricCPUPercent      = "cpu_percent"
	MetricMemoryPercent   = "memory_percent"
	MetricErrorRate       = "error_rate"
	MetricAvgResponseTime = "avg_response_time_ms"
	MetricThroughput      = "throughput"
	MetricConnections     = "active_connections"
)

// MetricSample is one collection tick of system and pipeline gauges.
// Samples are append-only: produced once, never mutated.
type MetricSample struct {
	Timestamp         time.Time `json:"timestamp"          db:"timestamp"`
	CPUPercent        float64   `json:"cpu_percent"        db:"cpu_percent"`
	MemoryPercent     float64   `json:"memory_percent"     db:"memory_percent"`
	ErrorRate         float64   `json:"error_rate"         db:"error_rate"`
	AvgResponseTimeMs float64   `json:"avg_response_time_ms" db:"avg_response_time_ms"`
	Throughput        float64   `json:"throughput"         db:"throughput"`
	ActiveConnections int       `json:"active_connections" db:"active_connections"`
}

// Value returns the gauge addressed by a threshold metric name.
func (s MetricSample) Value(metric string) (float64, bool) {
	switch metric {
	case MetricCPUPercent:
		return s.CPUPercent, true
	case MetricMemoryPercent:
		return s.MemoryPercent, true
	case MetricErrorRate:
		return s.ErrorRate, true
	case MetricAvgResponseTime:
		return s.AvgResponseTimeMs, true
	case MetricThroughput:
		return s.Throughput, true
	case MetricConnections:
		return float64(s.ActiveConnections), true
	default:
		return 0, false
	}
}
