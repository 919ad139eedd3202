package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/metrics"
)

// CreateAlert builds an alert, persists it, publishes it to the feed and logs
// it. Identical repeated breaches produce distinct alert records.
func (s *Service) CreateAlert(ctx context.Context, severity domain.Severity, pipeline, title, message string, metadata map[string]any) *domain.Alert {
	alert := &domain.Alert{
		ID:        uuid.New().String(),
		Severity:  severity,
		Pipeline:  pipeline,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
		Metadata:  metadata,
	}

	s.mu.Lock()
	s.recentAlerts = append(s.recentAlerts, alert)
	if len(s.recentAlerts) > s.cfg.AlertsRingCap {
		s.recentAlerts = s.recentAlerts[len(s.recentAlerts)-s.cfg.AlertsRingCap:]
	}
	s.mu.Unlock()

	metrics.AlertsTotal.WithLabelValues(string(severity), pipeline).Inc()

	if s.alertRepo != nil {
		if err := s.alertRepo.Insert(ctx, alert); err != nil {
			s.logger.Error(ctx, monitorPipeline, "Failed to persist alert", err, map[string]any{
				"alert_id": alert.ID,
			})
		}
	}

	if s.feed != nil {
		// Best effort: a dead feed must not block alerting.
		if err := s.feed.Publish(ctx, alert); err != nil {
			s.logger.Warn(ctx, monitorPipeline, "Failed to publish alert to feed", map[string]any{
				"alert_id": alert.ID,
				"error":    err.Error(),
			})
		}
	}

	s.logger.Warn(ctx, monitorPipeline,
		fmt.Sprintf("Alert raised: %s", title), map[string]any{
			"alert_id": alert.ID,
			"severity": string(severity),
			"pipeline": pipeline,
			"message":  message,
		})

	return alert
}

// Alerts returns alerts newest first, optionally filtered by severity and
// pipeline.
func (s *Service) Alerts(ctx context.Context, severity domain.Severity, pipeline string) ([]*domain.Alert, error) {
	if s.alertRepo != nil {
		return s.alertRepo.List(ctx, severity, pipeline)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Alert
	for i := len(s.recentAlerts) - 1; i >= 0; i-- {
		a := s.recentAlerts[i]
		if severity != "" && a.Severity != severity {
			continue
		}
		if pipeline != "" && a.Pipeline != pipeline {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// AcknowledgeAlert stamps the acknowledged timestamp.
func (s *Service) AcknowledgeAlert(ctx context.Context, id string) error {
	at := s.now()
	s.stampLocal(id, func(a *domain.Alert) { a.AcknowledgedAt = &at })
	if s.alertRepo == nil {
		return nil
	}
	return s.alertRepo.Acknowledge(ctx, id, at)
}

// ResolveAlert stamps the resolved timestamp.
func (s *Service) ResolveAlert(ctx context.Context, id string) error {
	at := s.now()
	s.stampLocal(id, func(a *domain.Alert) { a.ResolvedAt = &at })
	if s.alertRepo == nil {
		return nil
	}
	return s.alertRepo.Resolve(ctx, id, at)
}

func (s *Service) stampLocal(id string, stamp func(*domain.Alert)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.recentAlerts {
		if a.ID == id {
			stamp(a)
			return
		}
	}
}

// activeAlertCount counts unresolved in-memory alerts created after cutoff.
func (s *Service) activeAlertCount(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.recentAlerts {
		if a.Active() && a.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n
}
