// Package storage defines the repository contracts for the four durable
// stores the observability core reads and writes: logs, alerts, metric
// samples and health check results.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

var (
	// ErrAlertNotFound is returned when acknowledging or resolving an
	// alert that does not exist.
	ErrAlertNotFound = errors.New("alert not found")
)

// LogRepository handles the append-only log store.
type LogRepository interface {
	// Insert appends a log entry
	Insert(ctx context.Context, entry *domain.LogEntry) error

	// List returns entries matching the filter, newest first, capped at limit
	List(ctx context.Context, filter domain.LogFilter, limit int) ([]*domain.LogEntry, error)

	// Stats aggregates entries recorded at or after since
	Stats(ctx context.Context, since time.Time) (*domain.LogStats, error)
}

// AlertRepository handles alert rows, mutable only for ack/resolve timestamps.
type AlertRepository interface {
	// Insert appends an alert
	Insert(ctx context.Context, alert *domain.Alert) error

	// List returns alerts newest first; empty severity/pipeline mean no filter
	List(ctx context.Context, severity domain.Severity, pipeline string) ([]*domain.Alert, error)

	// Acknowledge stamps acknowledged_at
	Acknowledge(ctx context.Context, id string, at time.Time) error

	// Resolve stamps resolved_at
	Resolve(ctx context.Context, id string, at time.Time) error
}

// MetricRepository handles the append-only metric sample store.
type MetricRepository interface {
	// Insert appends a sample
	Insert(ctx context.Context, sample *domain.MetricSample) error

	// ListSince returns samples recorded at or after since, oldest first
	ListSince(ctx context.Context, since time.Time) ([]*domain.MetricSample, error)
}

// HealthRepository handles per-pipeline health results (latest wins).
type HealthRepository interface {
	// Upsert overwrites the result for the pipeline
	Upsert(ctx context.Context, result *domain.HealthCheckResult) error

	// List returns the latest result for every known pipeline
	List(ctx context.Context) ([]*domain.HealthCheckResult, error)
}
