package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/config"
	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	redisclient "github.com/hawk7227/dropshipping-management-sub008/internal/infra/redis"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage/memory"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage/postgres"
	"github.com/hawk7227/dropshipping-management-sub008/internal/monitor"
	"github.com/hawk7227/dropshipping-management-sub008/internal/obslog"
	"github.com/hawk7227/dropshipping-management-sub008/internal/resilience/breaker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	migrationsDir := flag.String("migrations", "migrations", "Path to goose migrations")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load configuration first (before setting up logger)
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	console := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(console)
	slog.Info("Logger initialized", "level", slogLevel.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage selection: PostgreSQL when configured, in-memory otherwise.
	var (
		logRepo    storage.LogRepository
		alertRepo  storage.AlertRepository
		metricRepo storage.MetricRepository
		healthRepo storage.HealthRepository
		db         *postgres.DB
	)

	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("Failed to init db", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(*migrationsDir); err != nil {
			slog.Error("Failed to migrate db", "error", err)
			os.Exit(1)
		}

		logRepo = postgres.NewLogRepo(db)
		alertRepo = postgres.NewAlertRepo(db)
		metricRepo = postgres.NewMetricRepo(db)
		healthRepo = postgres.NewHealthRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		logRepo = memory.NewLogRepo(store)
		alertRepo = memory.NewAlertRepo(store)
		metricRepo = memory.NewMetricRepo(store)
		healthRepo = memory.NewHealthRepo(store)
		slog.Info("Using memory storage")
	}

	logger := obslog.New(logRepo, console, domain.ExecutionContext{
		Environment: cfg.Logging.Environment,
		Version:     cfg.Logging.Version,
	})

	// Optional Redis alert feed.
	var feed monitor.AlertPublisher
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		feed = redisclient.NewAlertFeed(client, cfg.Monitoring.AlertFeedRetention)
		slog.Info("Alert feed enabled")
	}

	registry := breaker.NewRegistry()
	svc := monitor.New(cfg.Monitoring.Config, logger, alertRepo, metricRepo, healthRepo, feed)

	for _, t := range cfg.Monitoring.Thresholds {
		svc.AddThreshold(t)
	}

	if db != nil {
		svc.SetConnectionsFunc(func() int { return db.Stats().OpenConnections })
		svc.RegisterPipeline("database", func(ctx context.Context) monitor.ProbeResult {
			if err := db.Health(ctx); err != nil {
				return monitor.ProbeResult{
					Status:  domain.StatusUnhealthy,
					Details: map[string]any{"error": err.Error()},
				}
			}
			return monitor.ProbeResult{Status: domain.StatusHealthy}
		})
	}

	svc.Start(ctx)

	server := monitor.NewServer(svc, registry, cfg.Server.Port)
	go func() {
		slog.Info("Observability server listening", "port", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	svc.Stop()
	slog.Info("Shutdown complete")
}
