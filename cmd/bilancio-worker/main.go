package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting bilancio-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	dashboards := services.NewDashboardService(repo, cfg.SeriesMonths, cfg.UpcomingCount)
	recap := worker.NewRecapWorker(dashboards, cfg.RecapHorizonDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One digest on startup so an operator sees output immediately.
	if err := recap.Run(ctx); err != nil {
		logger.Error("Startup recap failed", "error", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RecapSchedule, func() {
		if err := recap.Run(ctx); err != nil {
			logger.Error("Scheduled recap failed", "error", err)
		}
	}); err != nil {
		logger.Error("Failed to schedule recap", "error", err, "schedule", cfg.RecapSchedule)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Recap scheduled", "schedule", cfg.RecapSchedule, "horizon_days", cfg.RecapHorizonDays)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
