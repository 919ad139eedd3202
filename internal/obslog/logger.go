// Package obslog is the structured pipeline logger. Every entry is persisted
// to the log store and mirrored to the console. Persistence failures degrade
// to console-only output: logging must never fail the calling pipeline.
package obslog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/metrics"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
	"github.com/hawk7227/dropshipping-management-sub008/internal/resilience/classify"
)

// Logger builds and persists structured log entries.
type Logger struct {
	repo    storage.LogRepository
	console *slog.Logger
	execCtx domain.ExecutionContext

	// now is injectable for tests.
	now func() time.Time
}

// New creates a logger writing to the given repository and console sink.
// A nil console falls back to slog.Default().
func New(repo storage.LogRepository, console *slog.Logger, execCtx domain.ExecutionContext) *Logger {
	if console == nil {
		console = slog.Default()
	}
	return &Logger{
		repo:    repo,
		console: console,
		execCtx: execCtx,
		now:     time.Now,
	}
}

// Record carries the optional parts of a log entry.
type Record struct {
	Details  map[string]any
	Err      error
	Code     string
	Metrics  *domain.MetricsInfo
	Recovery *domain.RecoveryInfo
}

// Log builds a LogEntry and writes it. An empty category is filled in by the
// classifier from the record's error (business_logic when there is none).
func (l *Logger) Log(ctx context.Context, level domain.Level, category domain.Category, pipeline, message string, rec Record) {
	entry := &domain.LogEntry{
		ID:        uuid.New().String(),
		Timestamp: l.now(),
		Level:     level,
		Category:  category,
		Pipeline:  pipeline,
		Message:   message,
		Details:   rec.Details,
		Context:   l.execCtx,
		Metrics:   rec.Metrics,
		Recovery:  rec.Recovery,
	}

	if rec.Err != nil {
		entry.Error = &domain.ErrorInfo{
			Name:    "error",
			Message: rec.Err.Error(),
			Code:    rec.Code,
		}
		if entry.Category == "" {
			entry.Category = classify.Classify(rec.Err.Error(), rec.Code)
		}
	}
	if entry.Category == "" {
		entry.Category = domain.CategoryBusinessLogic
	}

	metrics.LogEntriesTotal.WithLabelValues(string(level), pipeline).Inc()
	l.mirror(entry)

	if l.repo == nil {
		return
	}
	if err := l.repo.Insert(ctx, entry); err != nil {
		// Console-only degradation. An observability failure must not
		// cascade into pipeline failure.
		l.console.Warn("log persistence failed, console only",
			"pipeline", pipeline, "error", err)
	}
}

// mirror writes the entry to the console sink at the matching slog level.
func (l *Logger) mirror(entry *domain.LogEntry) {
	attrs := []any{
		"pipeline", entry.Pipeline,
		"category", string(entry.Category),
	}
	if entry.Error != nil {
		attrs = append(attrs, "error", entry.Error.Message)
	}
	if len(entry.Details) > 0 {
		attrs = append(attrs, "details", entry.Details)
	}

	switch entry.Level {
	case domain.LevelDebug:
		l.console.Debug(entry.Message, attrs...)
	case domain.LevelInfo:
		l.console.Info(entry.Message, attrs...)
	case domain.LevelWarn:
		l.console.Warn(entry.Message, attrs...)
	default:
		// error and critical both map to slog error
		l.console.Error(entry.Message, attrs...)
	}
}

// Info logs an info entry.
func (l *Logger) Info(ctx context.Context, pipeline, message string, details map[string]any) {
	l.Log(ctx, domain.LevelInfo, "", pipeline, message, Record{Details: details})
}

// Warn logs a warn entry.
func (l *Logger) Warn(ctx context.Context, pipeline, message string, details map[string]any) {
	l.Log(ctx, domain.LevelWarn, "", pipeline, message, Record{Details: details})
}

// Error logs an error entry, classifying the category from err.
func (l *Logger) Error(ctx context.Context, pipeline, message string, err error, details map[string]any) {
	l.Log(ctx, domain.LevelError, "", pipeline, message, Record{Details: details, Err: err})
}

// Critical logs a critical entry, classifying the category from err.
func (l *Logger) Critical(ctx context.Context, pipeline, message string, err error, details map[string]any) {
	l.Log(ctx, domain.LevelCritical, "", pipeline, message, Record{Details: details, Err: err})
}

// LogPipelineStart logs a "started" entry and returns a correlation id that
// the pipeline threads through its subsequent entries.
func (l *Logger) LogPipelineStart(ctx context.Context, pipeline string, details map[string]any) string {
	executionID := uuid.New().String()

	merged := map[string]any{"execution_id": executionID}
	for k, v := range details {
		merged[k] = v
	}
	l.Log(ctx, domain.LevelInfo, domain.CategoryBusinessLogic, pipeline,
		"Pipeline execution started", Record{Details: merged})
	return executionID
}

// LogPipelineEnd logs the completion entry for an execution id.
func (l *Logger) LogPipelineEnd(ctx context.Context, pipeline, executionID string, success bool, details map[string]any, err error) {
	merged := map[string]any{"execution_id": executionID, "success": success}
	for k, v := range details {
		merged[k] = v
	}

	if success {
		l.Log(ctx, domain.LevelInfo, domain.CategoryBusinessLogic, pipeline,
			"Pipeline execution completed", Record{Details: merged})
		return
	}
	l.Log(ctx, domain.LevelError, "", pipeline,
		"Pipeline execution failed", Record{Details: merged, Err: err})
}

// LogRetryAttempt logs the warn-level entry the retry engine emits between
// attempts.
func (l *Logger) LogRetryAttempt(ctx context.Context, pipeline, executionID string, attempt, maxAttempts int, err error, nextRetryIn time.Duration) {
	next := l.now().Add(nextRetryIn)
	l.Log(ctx, domain.LevelWarn, "", pipeline, "Retrying after failure", Record{
		Details: map[string]any{
			"execution_id":  executionID,
			"attempt":       attempt,
			"max_attempts":  maxAttempts,
			"next_retry_ms": nextRetryIn.Milliseconds(),
		},
		Err: err,
		Recovery: &domain.RecoveryInfo{
			Action:    "retry",
			Success:   false,
			NextRetry: &next,
		},
	})
}

// GetLogs returns stored entries matching the filter, newest first.
func (l *Logger) GetLogs(ctx context.Context, filter domain.LogFilter, limit int) ([]*domain.LogEntry, error) {
	if l.repo == nil {
		return nil, nil
	}
	return l.repo.List(ctx, filter, limit)
}

// GetLogStats aggregates entries over the trailing window of whole days.
func (l *Logger) GetLogStats(ctx context.Context, windowDays int) (*domain.LogStats, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	since := l.now().AddDate(0, 0, -windowDays)
	return l.statsSince(ctx, since)
}

// StatsSince aggregates entries recorded at or after since. Used by the
// monitoring service for short trailing windows.
func (l *Logger) StatsSince(ctx context.Context, since time.Time) (*domain.LogStats, error) {
	return l.statsSince(ctx, since)
}

func (l *Logger) statsSince(ctx context.Context, since time.Time) (*domain.LogStats, error) {
	if l.repo == nil {
		return &domain.LogStats{
			ByLevel:    map[domain.Level]int{},
			ByCategory: map[domain.Category]int{},
			ByPipeline: map[string]int{},
		}, nil
	}
	return l.repo.Stats(ctx, since)
}
