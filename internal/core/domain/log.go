// Package domain defines the entities shared across the resilience and
// observability packages: log entries, alerts, metric samples, health results.
package domain

import "time"

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Category classifies what subsystem an error originated from.
type Category string

const (
	CategoryNetwork         Category = "network"
	CategoryDatabase        Category = "database"
	CategoryValidation      Category = "validation"
	CategoryBusinessLogic   Category = "business_logic"
	CategoryExternalService Category = "external_service"
	CategorySystem          Category = "system"
	CategoryAuthentication  Category = "authentication"
	CategoryRateLimit       Category = "rate_limit"
	CategoryTimeout         Category = "timeout"
)

// ErrorInfo is a snapshot of an error attached to a log entry.
type ErrorInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Code    string `json:"code,omitempty"`
}

// MetricsInfo carries per-operation measurements attached to a log entry.
type MetricsInfo struct {
	Duration         time.Duration `json:"duration,omitempty"`
	MemoryBytes      uint64        `json:"memory_bytes,omitempty"`
	RecordsProcessed int           `json:"records_processed,omitempty"`
	RetryCount       int           `json:"retry_count,omitempty"`
}

// RecoveryInfo describes an automatic recovery action taken for a failure.
type RecoveryInfo struct {
	Action    string     `json:"action"`
	Success   bool       `json:"success"`
	NextRetry *time.Time `json:"next_retry,omitempty"`
}

// ExecutionContext identifies where and on whose behalf an entry was produced.
type ExecutionContext struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	RequestID   string `json:"request_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// LogEntry is a single structured log record. Entries are immutable once
// created and are only ever appended to the log store.
type LogEntry struct {
	ID        string           `json:"id"          db:"id"`
	Timestamp time.Time        `json:"timestamp"   db:"timestamp"`
	Level     Level            `json:"level"       db:"level"`
	Category  Category         `json:"category"    db:"category"`
	Pipeline  string           `json:"pipeline"    db:"pipeline"`
	Message   string           `json:"message"     db:"message"`
	Details   map[string]any   `json:"details,omitempty"`
	Context   ExecutionContext `json:"context"`
	Error     *ErrorInfo       `json:"error,omitempty"`
	Metrics   *MetricsInfo     `json:"metrics,omitempty"`
	Recovery  *RecoveryInfo    `json:"recovery,omitempty"`
}

// LogFilter narrows a log store query. Zero values mean "no constraint".
type LogFilter struct {
	Level    Level
	Category Category
	Pipeline string
	Since    time.Time
	Until    time.Time
	HasError bool
}

// LogStats aggregates a window of log entries.
type LogStats struct {
	TotalLogs  int              `json:"total_logs"`
	ByLevel    map[Level]int    `json:"by_level"`
	ByCategory map[Category]int `json:"by_category"`
	ByPipeline map[string]int   `json:"by_pipeline"`
	ErrorRate  float64          `json:"error_rate"`
}
