// Package memory provides in-memory implementations of the storage
// repositories. Used when no database URL is configured, and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
)

// DefaultCap bounds each append-only collection; oldest entries are evicted.
const DefaultCap = 10000

// MemoryStorage holds all in-memory collections behind a single mutex.
type MemoryStorage struct {
	logs    []*domain.LogEntry
	alerts  []*domain.Alert
	metrics []*domain.MetricSample
	health  map[string]*domain.HealthCheckResult
	cap     int
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		health: make(map[string]*domain.HealthCheckResult),
		cap:    DefaultCap,
	}
}

// -----------------------------------------------------------------------------
// Log Repository
// -----------------------------------------------------------------------------

type LogRepo struct {
	store *MemoryStorage
}

func NewLogRepo(store *MemoryStorage) *LogRepo {
	return &LogRepo{store: store}
}

func (r *LogRepo) Insert(ctx context.Context, entry *domain.LogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.logs = append(r.store.logs, entry)
	if len(r.store.logs) > r.store.cap {
		r.store.logs = r.store.logs[len(r.store.logs)-r.store.cap:]
	}
	return nil
}

func (r *LogRepo) List(ctx context.Context, filter domain.LogFilter, limit int) ([]*domain.LogEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.LogEntry
	// Newest first: walk backwards over the append-only slice.
	for i := len(r.store.logs) - 1; i >= 0; i-- {
		e := r.store.logs[i]
		if !matches(e, filter) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func matches(e *domain.LogEntry, f domain.LogFilter) bool {
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Pipeline != "" && e.Pipeline != f.Pipeline {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	if f.HasError && e.Error == nil {
		return false
	}
	return true
}

func (r *LogRepo) Stats(ctx context.Context, since time.Time) (*domain.LogStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stats := &domain.LogStats{
		ByLevel:    make(map[domain.Level]int),
		ByCategory: make(map[domain.Category]int),
		ByPipeline: make(map[string]int),
	}

	for _, e := range r.store.logs {
		if e.Timestamp.Before(since) {
			continue
		}
		stats.TotalLogs++
		stats.ByLevel[e.Level]++
		stats.ByCategory[e.Category]++
		stats.ByPipeline[e.Pipeline]++
	}

	if stats.TotalLogs > 0 {
		errs := stats.ByLevel[domain.LevelError] + stats.ByLevel[domain.LevelCritical]
		stats.ErrorRate = float64(errs) / float64(stats.TotalLogs)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------
// Alert Repository
// -----------------------------------------------------------------------------

type AlertRepo struct {
	store *MemoryStorage
}

func NewAlertRepo(store *MemoryStorage) *AlertRepo {
	return &AlertRepo{store: store}
}

func (r *AlertRepo) Insert(ctx context.Context, alert *domain.Alert) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.alerts = append(r.store.alerts, alert)
	if len(r.store.alerts) > r.store.cap {
		r.store.alerts = r.store.alerts[len(r.store.alerts)-r.store.cap:]
	}
	return nil
}

func (r *AlertRepo) List(ctx context.Context, severity domain.Severity, pipeline string) ([]*domain.Alert, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.Alert
	for _, a := range r.store.alerts {
		if severity != "" && a.Severity != severity {
			continue
		}
		if pipeline != "" && a.Pipeline != pipeline {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *AlertRepo) Acknowledge(ctx context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.alerts {
		if a.ID == id {
			a.AcknowledgedAt = &at
			return nil
		}
	}
	return storage.ErrAlertNotFound
}

func (r *AlertRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.alerts {
		if a.ID == id {
			a.ResolvedAt = &at
			return nil
		}
	}
	return storage.ErrAlertNotFound
}

// -----------------------------------------------------------------------------
// Metric Repository
// -----------------------------------------------------------------------------

type MetricRepo struct {
	store *MemoryStorage
}

func NewMetricRepo(store *MemoryStorage) *MetricRepo {
	return &MetricRepo{store: store}
}

func (r *MetricRepo) Insert(ctx context.Context, sample *domain.MetricSample) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.metrics = append(r.store.metrics, sample)
	if len(r.store.metrics) > r.store.cap {
		r.store.metrics = r.store.metrics[len(r.store.metrics)-r.store.cap:]
	}
	return nil
}

func (r *MetricRepo) ListSince(ctx context.Context, since time.Time) ([]*domain.MetricSample, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.MetricSample
	for _, s := range r.store.metrics {
		if !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Health Repository
// -----------------------------------------------------------------------------

type HealthRepo struct {
	store *MemoryStorage
}

func NewHealthRepo(store *MemoryStorage) *HealthRepo {
	return &HealthRepo{store: store}
}

func (r *HealthRepo) Upsert(ctx context.Context, result *domain.HealthCheckResult) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.health[result.Pipeline] = result
	return nil
}

func (r *HealthRepo) List(ctx context.Context) ([]*domain.HealthCheckResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.HealthCheckResult, 0, len(r.store.health))
	for _, h := range r.store.health {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Pipeline < out[j].Pipeline
	})
	return out, nil
}
