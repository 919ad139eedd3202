package monitor

import (
	"context"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

// checkHealth runs one health-check tick over every registered pipeline.
func (s *Service) checkHealth(ctx context.Context) {
	s.mu.Lock()
	probes := make(map[string]Probe, len(s.probes))
	for name, p := range s.probes {
		probes[name] = p
	}
	s.mu.Unlock()

	for name, probe := range probes {
		started := s.now()
		res := probe(ctx)
		elapsed := time.Since(started)
		if res.Status == "" {
			res.Status = domain.StatusUnhealthy
		}

		s.mu.Lock()
		counter := s.uptime[name]
		if counter == nil {
			counter = &uptimeCounter{}
			s.uptime[name] = counter
		}
		counter.checks++
		if res.Status == domain.StatusHealthy {
			counter.healthy++
		}
		previous, known := s.lastStatus[name]
		s.lastStatus[name] = res.Status
		uptimePct := counter.percent()
		s.mu.Unlock()

		result := &domain.HealthCheckResult{
			Pipeline:      name,
			Status:        res.Status,
			LastCheck:     started,
			ResponseTime:  elapsed,
			ErrorRate:     res.ErrorRate,
			UptimePercent: uptimePct,
			Details:       res.Details,
		}

		if s.healthRepo != nil {
			if err := s.healthRepo.Upsert(ctx, result); err != nil {
				s.logger.Error(ctx, monitorPipeline, "Failed to persist health result", err, map[string]any{
					"pipeline": name,
				})
			}
		}

		if known && previous != res.Status {
			s.logger.Info(ctx, monitorPipeline, "Pipeline health changed", map[string]any{
				"pipeline": name,
				"from":     string(previous),
				"to":       string(res.Status),
			})
		}
	}
}

// HealthChecks returns the latest result for every pipeline.
func (s *Service) HealthChecks(ctx context.Context) ([]*domain.HealthCheckResult, error) {
	if s.healthRepo == nil {
		return nil, nil
	}
	return s.healthRepo.List(ctx)
}

// Dashboard is the conceptual observability aggregate consumed by the
// operations dashboard.
type Dashboard struct {
	ErrorCount24h      int     `json:"error_count_24h"`
	ActiveAlerts24h    int     `json:"active_alerts_24h"`
	AvgErrorRate1h     float64 `json:"avg_error_rate_1h"`
	AvgResponseTime1h  float64 `json:"avg_response_time_1h_ms"`
	HealthyPipelines   int     `json:"healthy_pipelines"`
	UnhealthyPipelines int     `json:"unhealthy_pipelines"`
	AvgUptimePercent   float64 `json:"avg_uptime_percent"`
}

// GetDashboard computes the aggregate from the log, metric and health stores.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}

	stats, err := s.logger.StatsSince(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	d.ErrorCount24h = stats.ByLevel[domain.LevelError] + stats.ByLevel[domain.LevelCritical]
	d.ActiveAlerts24h = s.activeAlertCount(s.now().Add(-24 * time.Hour))

	samples, err := s.SystemMetrics(ctx, 60)
	if err != nil {
		return nil, err
	}
	if len(samples) > 0 {
		var rate, resp float64
		for _, m := range samples {
			rate += m.ErrorRate
			resp += m.AvgResponseTimeMs
		}
		d.AvgErrorRate1h = rate / float64(len(samples))
		d.AvgResponseTime1h = resp / float64(len(samples))
	}

	checks, err := s.HealthChecks(ctx)
	if err != nil {
		return nil, err
	}
	var uptime float64
	for _, h := range checks {
		if h.Status == domain.StatusHealthy {
			d.HealthyPipelines++
		} else {
			d.UnhealthyPipelines++
		}
		uptime += h.UptimePercent
	}
	if len(checks) > 0 {
		d.AvgUptimePercent = uptime / float64(len(checks))
	}

	return d, nil
}
