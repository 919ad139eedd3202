package config

import (
	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	redisclient "github.com/hawk7227/dropshipping-management-sub008/internal/infra/redis"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage/postgres"
	"github.com/hawk7227/dropshipping-management-sub008/internal/monitor"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Monitoring MonitoringConfig   `yaml:"monitoring"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Environment string `yaml:"environment"` // development, staging, production
	Version     string `yaml:"version"`
}

// MonitoringConfig holds monitoring loop settings and threshold definitions.
type MonitoringConfig struct {
	monitor.Config `yaml:",inline"`

	// AlertFeedRetention caps the Redis alert feed size.
	AlertFeedRetention int `yaml:"alert_feed_retention"`

	// Thresholds drive alert generation.
	Thresholds []domain.MetricThreshold `yaml:"thresholds"`
}
