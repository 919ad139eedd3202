package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

// MetricRepo implements storage.MetricRepository using PostgreSQL.
type MetricRepo struct {
	db *DB
}

// NewMetricRepo creates a new PostgreSQL metric repository.
func NewMetricRepo(db *DB) *MetricRepo {
	return &MetricRepo{db: db}
}

// Insert appends a metric sample.
func (r *MetricRepo) Insert(ctx context.Context, sample *domain.MetricSample) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_metrics (timestamp, cpu_percent, memory_percent, error_rate, avg_response_time_ms, throughput, active_connections)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sample.Timestamp, sample.CPUPercent, sample.MemoryPercent, sample.ErrorRate,
		sample.AvgResponseTimeMs, sample.Throughput, sample.ActiveConnections)
	if err != nil {
		return fmt.Errorf("failed to insert metric sample: %w", err)
	}
	return nil
}

// ListSince returns samples recorded at or after since, oldest first.
func (r *MetricRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.MetricSample, error) {
	var samples []*domain.MetricSample
	err := r.db.SelectContext(ctx, &samples, `
		SELECT timestamp, cpu_percent, memory_percent, error_rate, avg_response_time_ms, throughput, active_connections
		FROM system_metrics
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric samples: %w", err)
	}
	return samples, nil
}
