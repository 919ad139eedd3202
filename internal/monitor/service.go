// Package monitor runs the two background observability loops: periodic
// metric collection with threshold-driven alerting, and periodic per-pipeline
// health checks.
package monitor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
	"github.com/hawk7227/dropshipping-management-sub008/internal/obslog"
)

const monitorPipeline = "monitoring"

// Config holds monitoring service settings.
type Config struct {
	// CollectInterval is the metric collection period (default 30s).
	CollectInterval time.Duration `yaml:"collect_interval"`
	// HealthCheckInterval is the health probe period (default 2m).
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	// ErrorRateWindow is the trailing window for the error-rate gauge
	// (default 1h).
	ErrorRateWindow time.Duration `yaml:"error_rate_window"`
	// MetricsRingCap bounds the in-memory sample ring (default 1000).
	MetricsRingCap int `yaml:"metrics_ring_cap"`
	// AlertsRingCap bounds the in-memory alert list (default 500).
	AlertsRingCap int `yaml:"alerts_ring_cap"`
}

func (c Config) withDefaults() Config {
	if c.CollectInterval <= 0 {
		c.CollectInterval = 30 * time.Second
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 2 * time.Minute
	}
	if c.ErrorRateWindow <= 0 {
		c.ErrorRateWindow = time.Hour
	}
	if c.MetricsRingCap <= 0 {
		c.MetricsRingCap = 1000
	}
	if c.AlertsRingCap <= 0 {
		c.AlertsRingCap = 500
	}
	return c
}

// ProbeResult is what a pipeline health probe reports.
type ProbeResult struct {
	Status    domain.HealthStatus
	ErrorRate float64
	Details   map[string]any
}

// Probe is a lightweight per-pipeline health check.
type Probe func(ctx context.Context) ProbeResult

// AlertPublisher pushes created alerts to an external feed. Optional.
type AlertPublisher interface {
	Publish(ctx context.Context, alert *domain.Alert) error
}

// uptimeCounter tracks how many health checks found a pipeline healthy.
type uptimeCounter struct {
	checks  int
	healthy int
}

func (u *uptimeCounter) percent() float64 {
	if u.checks == 0 {
		return 100
	}
	return float64(u.healthy) / float64(u.checks) * 100
}

// Service owns the collection and health-check loops and the alert lifecycle.
type Service struct {
	cfg        Config
	logger     *obslog.Logger
	alertRepo  storage.AlertRepository
	metricRepo storage.MetricRepository
	healthRepo storage.HealthRepository
	feed       AlertPublisher

	mu            sync.Mutex
	thresholds    []domain.MetricThreshold
	recentSamples []*domain.MetricSample
	recentAlerts  []*domain.Alert
	probes        map[string]Probe
	lastStatus    map[string]domain.HealthStatus
	uptime        map[string]*uptimeCounter

	// operation window counters, reset each collection tick
	opCount    int
	opDuration time.Duration

	// gauge hooks, injectable for tests and wiring
	cpuPercent  func() float64
	memPercent  func() float64
	connections func() int
	now         func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a monitoring service. feed may be nil.
func New(cfg Config, logger *obslog.Logger, alertRepo storage.AlertRepository,
	metricRepo storage.MetricRepository, healthRepo storage.HealthRepository,
	feed AlertPublisher) *Service {
	return &Service{
		cfg:         cfg.withDefaults(),
		logger:      logger,
		alertRepo:   alertRepo,
		metricRepo:  metricRepo,
		healthRepo:  healthRepo,
		feed:        feed,
		probes:      make(map[string]Probe),
		lastStatus:  make(map[string]domain.HealthStatus),
		uptime:      make(map[string]*uptimeCounter),
		cpuPercent:  func() float64 { return 0 },
		memPercent:  memPercent,
		connections: func() int { return 0 },
		now:         time.Now,
	}
}

// memPercent approximates process memory pressure from the Go heap.
func memPercent() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapSys == 0 {
		return 0
	}
	return float64(ms.HeapAlloc) / float64(ms.HeapSys) * 100
}

// SetConnectionsFunc wires the active-connection gauge (e.g. DB pool stats).
func (s *Service) SetConnectionsFunc(fn func() int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.connections = fn
	}
}

// RegisterPipeline registers a pipeline for health checking. A nil probe
// reports healthy whenever the check runs.
func (s *Service) RegisterPipeline(name string, probe Probe) {
	if probe == nil {
		probe = func(ctx context.Context) ProbeResult {
			return ProbeResult{Status: domain.StatusHealthy}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes[name] = probe
	if _, ok := s.uptime[name]; !ok {
		s.uptime[name] = &uptimeCounter{}
	}
}

// RecordOperation feeds the throughput and response-time gauges. Pipelines
// call this after each unit of external work.
func (s *Service) RecordOperation(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opCount++
	s.opDuration += d
}

// AddThreshold registers a threshold at runtime.
func (s *Service) AddThreshold(t domain.MetricThreshold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = append(s.thresholds, t)
}

// RemoveThreshold drops every threshold matching pipeline+metric.
func (s *Service) RemoveThreshold(pipeline, metric string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.thresholds[:0]
	for _, t := range s.thresholds {
		if t.Pipeline == pipeline && t.Metric == metric {
			continue
		}
		kept = append(kept, t)
	}
	s.thresholds = kept
}

// Thresholds returns a copy of the registered thresholds.
func (s *Service) Thresholds() []domain.MetricThreshold {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MetricThreshold, len(s.thresholds))
	copy(out, s.thresholds)
	return out
}

// Start launches the collection and health-check loops. Both stop when ctx is
// cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.loop(ctx, s.cfg.CollectInterval, s.collect)
	go s.loop(ctx, s.cfg.HealthCheckInterval, s.checkHealth)
}

// Stop cancels the loops and waits for them to drain.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Service) loop(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}
