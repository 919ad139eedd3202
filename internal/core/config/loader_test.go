package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090

logging:
  level: debug
  environment: staging
  version: "1.2.3"

database:
  url: postgres://localhost/ops
  max_conns: 5

redis:
  url: redis://localhost:6379
  enabled: true

monitoring:
  metrics_ring_cap: 100
  alert_feed_retention: 50
  thresholds:
    - pipeline: system
      metric: error_rate
      value: 0.1
      op: gt
      severity: error
      description: too many errors
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Environment != "staging" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Database.URL != "postgres://localhost/ops" || cfg.Database.MaxConns != 5 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis not enabled")
	}
	if cfg.Monitoring.MetricsRingCap != 100 || cfg.Monitoring.AlertFeedRetention != 50 {
		t.Errorf("monitoring = %+v", cfg.Monitoring)
	}
	if len(cfg.Monitoring.Thresholds) != 1 {
		t.Fatalf("thresholds = %d, want 1", len(cfg.Monitoring.Thresholds))
	}
	th := cfg.Monitoring.Thresholds[0]
	if th.Metric != domain.MetricErrorRate || th.Op != domain.CompareGT || th.Severity != domain.SeverityError {
		t.Errorf("threshold = %+v", th)
	}
	if th.Value != 0.1 {
		t.Errorf("threshold value = %v, want 0.1", th.Value)
	}
}

func TestLoadEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_URL", "postgres://env-host/ops")
	t.Setenv("TEST_APP_ENV", "production")

	path := writeConfig(t, `
logging:
  environment: ${TEST_APP_ENV}

database:
  url: ${TEST_DB_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.URL != "postgres://env-host/ops" {
		t.Errorf("url = %q, env var not expanded", cfg.Database.URL)
	}
	if cfg.Logging.Environment != "production" {
		t.Errorf("environment = %q, env var not expanded", cfg.Logging.Environment)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server: {}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Environment != "development" {
		t.Errorf("defaults = %+v", cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
