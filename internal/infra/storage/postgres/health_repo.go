package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

// HealthRepo implements storage.HealthRepository using PostgreSQL.
type HealthRepo struct {
	db *DB
}

// NewHealthRepo creates a new PostgreSQL health repository.
func NewHealthRepo(db *DB) *HealthRepo {
	return &HealthRepo{db: db}
}

type healthRow struct {
	Pipeline       string    `db:"pipeline"`
	Status         string    `db:"status"`
	LastCheck      time.Time `db:"last_check"`
	ResponseTimeMs int64     `db:"response_time_ms"`
	ErrorRate      float64   `db:"error_rate"`
	UptimePercent  float64   `db:"uptime_percent"`
	Details        []byte    `db:"details"`
}

// Upsert overwrites the health result for the pipeline.
func (r *HealthRepo) Upsert(ctx context.Context, result *domain.HealthCheckResult) error {
	var details []byte
	if result.Details != nil {
		var err error
		details, err = json.Marshal(result.Details)
		if err != nil {
			return fmt.Errorf("failed to encode health details: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_health (pipeline, status, last_check, response_time_ms, error_rate, uptime_percent, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pipeline) DO UPDATE SET
			status = EXCLUDED.status,
			last_check = EXCLUDED.last_check,
			response_time_ms = EXCLUDED.response_time_ms,
			error_rate = EXCLUDED.error_rate,
			uptime_percent = EXCLUDED.uptime_percent,
			details = EXCLUDED.details
	`, result.Pipeline, string(result.Status), result.LastCheck,
		result.ResponseTime.Milliseconds(), result.ErrorRate, result.UptimePercent, details)
	if err != nil {
		return fmt.Errorf("failed to upsert health result: %w", err)
	}
	return nil
}

// List returns the latest result for every known pipeline.
func (r *HealthRepo) List(ctx context.Context) ([]*domain.HealthCheckResult, error) {
	var rows []healthRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT pipeline, status, last_check, response_time_ms, error_rate, uptime_percent, details
		FROM pipeline_health
		ORDER BY pipeline ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list health results: %w", err)
	}

	results := make([]*domain.HealthCheckResult, 0, len(rows))
	for i := range rows {
		row := rows[i]
		result := &domain.HealthCheckResult{
			Pipeline:      row.Pipeline,
			Status:        domain.HealthStatus(row.Status),
			LastCheck:     row.LastCheck,
			ResponseTime:  time.Duration(row.ResponseTimeMs) * time.Millisecond,
			ErrorRate:     row.ErrorRate,
			UptimePercent: row.UptimePercent,
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &result.Details); err != nil {
				return nil, fmt.Errorf("failed to decode health details: %w", err)
			}
		}
		results = append(results, result)
	}
	return results, nil
}
