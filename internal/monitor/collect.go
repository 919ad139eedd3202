package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/metrics"
)

// collect runs one metric collection tick: sample gauges, persist, evaluate
// thresholds.
func (s *Service) collect(ctx context.Context) {
	start := s.now()
	defer func() {
		metrics.CollectionDuration.Observe(time.Since(start).Seconds())
	}()

	sample := s.buildSample(ctx)

	s.mu.Lock()
	s.recentSamples = append(s.recentSamples, sample)
	if len(s.recentSamples) > s.cfg.MetricsRingCap {
		s.recentSamples = s.recentSamples[len(s.recentSamples)-s.cfg.MetricsRingCap:]
	}
	thresholds := make([]domain.MetricThreshold, len(s.thresholds))
	copy(thresholds, s.thresholds)
	s.mu.Unlock()

	if s.metricRepo != nil {
		if err := s.metricRepo.Insert(ctx, sample); err != nil {
			s.logger.Error(ctx, monitorPipeline, "Failed to persist metric sample", err, nil)
		}
	}

	// No deduplication: a sustained breach raises one alert per tick.
	for _, t := range thresholds {
		observed, ok := sample.Value(t.Metric)
		if !ok || !t.Breached(observed) {
			continue
		}
		s.CreateAlert(ctx, t.Severity, t.Pipeline,
			fmt.Sprintf("Threshold breached: %s", t.Metric),
			fmt.Sprintf("%s is %.2f (%s %.2f): %s", t.Metric, observed, t.Op, t.Value, t.Description),
			map[string]any{
				"metric":    t.Metric,
				"value":     observed,
				"threshold": t.Value,
				"op":        string(t.Op),
			})
	}
}

// buildSample reads the live gauges and the trailing error rate.
func (s *Service) buildSample(ctx context.Context) *domain.MetricSample {
	s.mu.Lock()
	opCount := s.opCount
	opDuration := s.opDuration
	s.opCount = 0
	s.opDuration = 0
	cpuFn, memFn, connFn := s.cpuPercent, s.memPercent, s.connections
	interval := s.cfg.CollectInterval
	s.mu.Unlock()

	sample := &domain.MetricSample{
		Timestamp:         s.now(),
		CPUPercent:        cpuFn(),
		MemoryPercent:     memFn(),
		ActiveConnections: connFn(),
	}

	if opCount > 0 {
		sample.AvgResponseTimeMs = float64(opDuration.Milliseconds()) / float64(opCount)
		sample.Throughput = float64(opCount) / interval.Seconds()
	}

	stats, err := s.logger.StatsSince(ctx, s.now().Add(-s.cfg.ErrorRateWindow))
	if err != nil {
		s.logger.Error(ctx, monitorPipeline, "Failed to compute trailing error rate", err, nil)
	} else {
		sample.ErrorRate = stats.ErrorRate
		metrics.ErrorRate.Set(stats.ErrorRate)
	}

	return sample
}

// SystemMetrics returns samples from the trailing window, oldest first.
func (s *Service) SystemMetrics(ctx context.Context, windowMinutes int) ([]*domain.MetricSample, error) {
	if windowMinutes <= 0 {
		windowMinutes = 60
	}
	since := s.now().Add(-time.Duration(windowMinutes) * time.Minute)

	if s.metricRepo != nil {
		return s.metricRepo.ListSince(ctx, since)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.MetricSample
	for _, m := range s.recentSamples {
		if !m.Timestamp.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}
