package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
)

func entry(ts time.Time, level domain.Level, pipeline string) *domain.LogEntry {
	return &domain.LogEntry{
		ID:        pipeline + ts.String(),
		Timestamp: ts,
		Level:     level,
		Category:  domain.CategoryBusinessLogic,
		Pipeline:  pipeline,
		Message:   "m",
	}
}

func TestLogRepoListFilters(t *testing.T) {
	repo := NewLogRepo(NewMemoryStorage())
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo.Insert(ctx, entry(base, domain.LevelInfo, "a"))
	e := entry(base.Add(time.Minute), domain.LevelError, "a")
	e.Error = &domain.ErrorInfo{Message: "timeout"}
	repo.Insert(ctx, e)
	repo.Insert(ctx, entry(base.Add(2*time.Minute), domain.LevelInfo, "b"))

	tests := []struct {
		name   string
		filter domain.LogFilter
		limit  int
		want   int
	}{
		{"all", domain.LogFilter{}, 0, 3},
		{"by pipeline", domain.LogFilter{Pipeline: "a"}, 0, 2},
		{"by level", domain.LogFilter{Level: domain.LevelError}, 0, 1},
		{"has error", domain.LogFilter{HasError: true}, 0, 1},
		{"since", domain.LogFilter{Since: base.Add(time.Minute)}, 0, 2},
		{"until", domain.LogFilter{Until: base.Add(30 * time.Second)}, 0, 1},
		{"limited", domain.LogFilter{}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}

	// Newest first.
	got, _ := repo.List(ctx, domain.LogFilter{}, 0)
	if got[0].Pipeline != "b" {
		t.Errorf("first entry from %q, want newest (b)", got[0].Pipeline)
	}
}

func TestLogRepoCapEviction(t *testing.T) {
	store := NewMemoryStorage()
	store.cap = 5
	repo := NewLogRepo(store)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		repo.Insert(ctx, entry(time.Now().Add(time.Duration(i)*time.Second), domain.LevelInfo, "p"))
	}

	got, _ := repo.List(ctx, domain.LogFilter{}, 0)
	if len(got) != 5 {
		t.Errorf("after eviction: %d entries, want 5", len(got))
	}
}

func TestLogRepoStats(t *testing.T) {
	repo := NewLogRepo(NewMemoryStorage())
	ctx := context.Background()
	now := time.Now()

	repo.Insert(ctx, entry(now, domain.LevelInfo, "a"))
	repo.Insert(ctx, entry(now, domain.LevelError, "a"))
	repo.Insert(ctx, entry(now, domain.LevelCritical, "b"))
	repo.Insert(ctx, entry(now.Add(-48*time.Hour), domain.LevelError, "old"))

	stats, err := repo.Stats(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalLogs != 3 {
		t.Fatalf("total = %d, want 3 (window excludes old entry)", stats.TotalLogs)
	}
	want := 2.0 / 3.0
	if stats.ErrorRate != want {
		t.Errorf("error rate = %v, want %v", stats.ErrorRate, want)
	}
	if stats.ByPipeline["a"] != 2 {
		t.Errorf("by_pipeline = %+v", stats.ByPipeline)
	}
}

func TestAlertRepoLifecycle(t *testing.T) {
	repo := NewAlertRepo(NewMemoryStorage())
	ctx := context.Background()
	now := time.Now()

	repo.Insert(ctx, &domain.Alert{ID: "a1", Severity: domain.SeverityWarning, Pipeline: "p", CreatedAt: now})
	repo.Insert(ctx, &domain.Alert{ID: "a2", Severity: domain.SeverityCritical, Pipeline: "q", CreatedAt: now.Add(time.Second)})

	got, _ := repo.List(ctx, "", "")
	if len(got) != 2 || got[0].ID != "a2" {
		t.Fatalf("list = %+v, want newest first", got)
	}
	got, _ = repo.List(ctx, domain.SeverityCritical, "q")
	if len(got) != 1 {
		t.Errorf("filtered list = %d, want 1", len(got))
	}

	if err := repo.Acknowledge(ctx, "a1", now); err != nil {
		t.Fatal(err)
	}
	if err := repo.Resolve(ctx, "a1", now); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.List(ctx, "", "p")
	if got[0].AcknowledgedAt == nil || got[0].ResolvedAt == nil {
		t.Errorf("timestamps missing: %+v", got[0])
	}

	if err := repo.Resolve(ctx, "missing", now); !errors.Is(err, storage.ErrAlertNotFound) {
		t.Errorf("err = %v, want ErrAlertNotFound", err)
	}
}

func TestMetricRepoListSince(t *testing.T) {
	repo := NewMetricRepo(NewMemoryStorage())
	ctx := context.Background()
	now := time.Now()

	repo.Insert(ctx, &domain.MetricSample{Timestamp: now.Add(-2 * time.Hour)})
	repo.Insert(ctx, &domain.MetricSample{Timestamp: now.Add(-time.Minute)})
	repo.Insert(ctx, &domain.MetricSample{Timestamp: now})

	got, err := repo.ListSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d samples, want 2", len(got))
	}
}

func TestHealthRepoUpsert(t *testing.T) {
	repo := NewHealthRepo(NewMemoryStorage())
	ctx := context.Background()

	repo.Upsert(ctx, &domain.HealthCheckResult{Pipeline: "b", Status: domain.StatusHealthy})
	repo.Upsert(ctx, &domain.HealthCheckResult{Pipeline: "a", Status: domain.StatusHealthy})
	repo.Upsert(ctx, &domain.HealthCheckResult{Pipeline: "b", Status: domain.StatusUnhealthy})

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2 (one per pipeline)", len(got))
	}
	if got[0].Pipeline != "a" || got[1].Pipeline != "b" {
		t.Errorf("not sorted by pipeline: %+v", got)
	}
	if got[1].Status != domain.StatusUnhealthy {
		t.Errorf("upsert did not replace: %+v", got[1])
	}
}
