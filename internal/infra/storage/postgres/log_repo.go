package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

// LogRepo implements storage.LogRepository using PostgreSQL.
type LogRepo struct {
	db *DB
}

// NewLogRepo creates a new PostgreSQL log repository.
func NewLogRepo(db *DB) *LogRepo {
	return &LogRepo{db: db}
}

// logRow is the flat table shape of a log entry.
type logRow struct {
	ID          string    `db:"id"`
	Timestamp   time.Time `db:"timestamp"`
	Level       string    `db:"level"`
	Category    string    `db:"category"`
	Pipeline    string    `db:"pipeline"`
	Message     string    `db:"message"`
	Details     []byte    `db:"details"`
	Context     []byte    `db:"context"`
	ErrorInfo   []byte    `db:"error_info"`
	MetricsInfo []byte    `db:"metrics_info"`
	Recovery    []byte    `db:"recovery"`
}

// Insert appends a log entry.
func (r *LogRepo) Insert(ctx context.Context, entry *domain.LogEntry) error {
	row := logRow{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		Level:     string(entry.Level),
		Category:  string(entry.Category),
		Pipeline:  entry.Pipeline,
		Message:   entry.Message,
	}

	var err error
	if row.Details, err = marshalJSON(entry.Details); err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}
	if row.Context, err = marshalJSON(entry.Context); err != nil {
		return fmt.Errorf("failed to encode context: %w", err)
	}
	if row.ErrorInfo, err = marshalJSON(entry.Error); err != nil {
		return fmt.Errorf("failed to encode error info: %w", err)
	}
	if row.MetricsInfo, err = marshalJSON(entry.Metrics); err != nil {
		return fmt.Errorf("failed to encode metrics info: %w", err)
	}
	if row.Recovery, err = marshalJSON(entry.Recovery); err != nil {
		return fmt.Errorf("failed to encode recovery info: %w", err)
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO pipeline_logs (id, timestamp, level, category, pipeline, message, details, context, error_info, metrics_info, recovery)
		VALUES (:id, :timestamp, :level, :category, :pipeline, :message, :details, :context, :error_info, :metrics_info, :recovery)
	`, row)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// List returns entries matching the filter, newest first.
func (r *LogRepo) List(ctx context.Context, filter domain.LogFilter, limit int) ([]*domain.LogEntry, error) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Level != "" {
		add("level = $%d", string(filter.Level))
	}
	if filter.Category != "" {
		add("category = $%d", string(filter.Category))
	}
	if filter.Pipeline != "" {
		add("pipeline = $%d", filter.Pipeline)
	}
	if !filter.Since.IsZero() {
		add("timestamp >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("timestamp <= $%d", filter.Until)
	}
	if filter.HasError {
		conds = append(conds, "error_info IS NOT NULL")
	}

	query := "SELECT id, timestamp, level, category, pipeline, message, details, context, error_info, metrics_info, recovery FROM pipeline_logs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}

	entries := make([]*domain.LogEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Stats aggregates entries recorded at or after since.
func (r *LogRepo) Stats(ctx context.Context, since time.Time) (*domain.LogStats, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT level, category, pipeline, COUNT(*) AS n
		FROM pipeline_logs
		WHERE timestamp >= $1
		GROUP BY level, category, pipeline
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate log stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.LogStats{
		ByLevel:    make(map[domain.Level]int),
		ByCategory: make(map[domain.Category]int),
		ByPipeline: make(map[string]int),
	}

	for rows.Next() {
		var level, category, pipeline string
		var n int
		if err := rows.Scan(&level, &category, &pipeline, &n); err != nil {
			return nil, fmt.Errorf("failed to scan log stats row: %w", err)
		}
		stats.TotalLogs += n
		stats.ByLevel[domain.Level(level)] += n
		stats.ByCategory[domain.Category(category)] += n
		stats.ByPipeline[pipeline] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalLogs > 0 {
		errs := stats.ByLevel[domain.LevelError] + stats.ByLevel[domain.LevelCritical]
		stats.ErrorRate = float64(errs) / float64(stats.TotalLogs)
	}
	return stats, nil
}

func (row *logRow) toDomain() (*domain.LogEntry, error) {
	entry := &domain.LogEntry{
		ID:        row.ID,
		Timestamp: row.Timestamp,
		Level:     domain.Level(row.Level),
		Category:  domain.Category(row.Category),
		Pipeline:  row.Pipeline,
		Message:   row.Message,
	}

	if err := unmarshalJSON(row.Details, &entry.Details); err != nil {
		return nil, fmt.Errorf("failed to decode details: %w", err)
	}
	if err := unmarshalJSON(row.Context, &entry.Context); err != nil {
		return nil, fmt.Errorf("failed to decode context: %w", err)
	}
	if err := unmarshalJSON(row.ErrorInfo, &entry.Error); err != nil {
		return nil, fmt.Errorf("failed to decode error info: %w", err)
	}
	if err := unmarshalJSON(row.MetricsInfo, &entry.Metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics info: %w", err)
	}
	if err := unmarshalJSON(row.Recovery, &entry.Recovery); err != nil {
		return nil, fmt.Errorf("failed to decode recovery info: %w", err)
	}
	return entry, nil
}

// marshalJSON encodes v for a jsonb column, mapping nil to SQL NULL.
func marshalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if val == nil {
			return nil, nil
		}
	case *domain.ErrorInfo:
		if val == nil {
			return nil, nil
		}
	case *domain.MetricsInfo:
		if val == nil {
			return nil, nil
		}
	case *domain.RecoveryInfo:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
