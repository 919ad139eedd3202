package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
)

// AlertRepo implements storage.AlertRepository using PostgreSQL.
type AlertRepo struct {
	db *DB
}

// NewAlertRepo creates a new PostgreSQL alert repository.
func NewAlertRepo(db *DB) *AlertRepo {
	return &AlertRepo{db: db}
}

type alertRow struct {
	ID             string     `db:"id"`
	Severity       string     `db:"severity"`
	Pipeline       string     `db:"pipeline"`
	Title          string     `db:"title"`
	Message        string     `db:"message"`
	CreatedAt      time.Time  `db:"created_at"`
	AcknowledgedAt *time.Time `db:"acknowledged_at"`
	ResolvedAt     *time.Time `db:"resolved_at"`
	Metadata       []byte     `db:"metadata"`
}

// Insert appends an alert.
func (r *AlertRepo) Insert(ctx context.Context, alert *domain.Alert) error {
	var metadata []byte
	if alert.Metadata != nil {
		var err error
		metadata, err = json.Marshal(alert.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode alert metadata: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pipeline_alerts (id, severity, pipeline, title, message, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, alert.ID, string(alert.Severity), alert.Pipeline, alert.Title, alert.Message, alert.CreatedAt, metadata)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// List returns alerts newest first, optionally filtered.
func (r *AlertRepo) List(ctx context.Context, severity domain.Severity, pipeline string) ([]*domain.Alert, error) {
	var conds []string
	var args []any

	if severity != "" {
		args = append(args, string(severity))
		conds = append(conds, fmt.Sprintf("severity = $%d", len(args)))
	}
	if pipeline != "" {
		args = append(args, pipeline)
		conds = append(conds, fmt.Sprintf("pipeline = $%d", len(args)))
	}

	query := "SELECT id, severity, pipeline, title, message, created_at, acknowledged_at, resolved_at, metadata FROM pipeline_alerts"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]*domain.Alert, 0, len(rows))
	for i := range rows {
		row := rows[i]
		alert := &domain.Alert{
			ID:             row.ID,
			Severity:       domain.Severity(row.Severity),
			Pipeline:       row.Pipeline,
			Title:          row.Title,
			Message:        row.Message,
			CreatedAt:      row.CreatedAt,
			AcknowledgedAt: row.AcknowledgedAt,
			ResolvedAt:     row.ResolvedAt,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &alert.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode alert metadata: %w", err)
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// Acknowledge stamps acknowledged_at.
func (r *AlertRepo) Acknowledge(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pipeline_alerts SET acknowledged_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return checkFound(res)
}

// Resolve stamps resolved_at.
func (r *AlertRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pipeline_alerts SET resolved_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	return checkFound(res)
}

func checkFound(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrAlertNotFound
	}
	return nil
}
