package domain

import "time"

// Severity is the urgency of an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// CompareOp is the comparison used when evaluating a threshold.
type CompareOp string

const (
	CompareGT  CompareOp = "gt"
	CompareGTE CompareOp = "gte"
	CompareLT  CompareOp = "lt"
	CompareLTE CompareOp = "lte"
	CompareEQ  CompareOp = "eq"
)

// Alert is raised when a metric sample breaches a configured threshold.
// Alerts are never deleted, only acknowledged/resolved and capped in retention.
type Alert struct {
	ID             string         `json:"id"              db:"id"`
	Severity       Severity       `json:"severity"        db:"severity"`
	Pipeline       string         `json:"pipeline"        db:"pipeline"`
	Title          string         `json:"title"           db:"title"`
	Message        string         `json:"message"         db:"message"`
	CreatedAt      time.Time      `json:"created_at"      db:"created_at"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"     db:"resolved_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Active reports whether the alert has not been resolved yet.
func (a *Alert) Active() bool {
	return a.ResolvedAt == nil
}

// MetricThreshold drives alert generation: when the named metric of a matching
// pipeline compares true against Value, an alert of Severity is raised.
type MetricThreshold struct {
	Pipeline    string    `json:"pipeline"    yaml:"pipeline"`
	Metric      string    `json:"metric"      yaml:"metric"`
	Value       float64   `json:"value"       yaml:"value"`
	Op          CompareOp `json:"op"          yaml:"op"`
	Severity    Severity  `json:"severity"    yaml:"severity"`
	Description string    `json:"description" yaml:"description"`
}

// Breached evaluates the threshold against an observed value.
func (t MetricThreshold) Breached(observed float64) bool {
	switch t.Op {
	case CompareGT:
		return observed > t.Value
	case CompareGTE:
		return observed >= t.Value
	case CompareLT:
		return observed < t.Value
	case CompareLTE:
		return observed <= t.Value
	case CompareEQ:
		return observed == t.Value
	default:
		return false
	}
}
