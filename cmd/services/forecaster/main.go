package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/giftpool/forecaster/internal/config"
	"github.com/giftpool/forecaster/internal/handlers"
	"github.com/giftpool/forecaster/internal/logging"
	"github.com/giftpool/forecaster/internal/metadata"
	"github.com/giftpool/forecaster/internal/metrics"
	"github.com/giftpool/forecaster/internal/queue"
	"github.com/giftpool/forecaster/internal/router"
	"github.com/giftpool/forecaster/internal/services"
	"github.com/giftpool/forecaster/internal/storage"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Forecaster service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Series and snapshot storage
	logger.Info("Opening series store", "backend", cfg.Storage.Backend)
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open series store", "error", err)
	}
	defer func() { _ = store.Close() }()

	// Subject metadata
	logger.Info("Opening metadata manager", "backend", cfg.Metadata.Backend)
	metadataManager, err := metadata.NewManager(cfg)
	if err != nil {
		logger.Fatal("Failed to open metadata manager", "error", err)
	}
	defer func() { _ = metadataManager.Close() }()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Services
	forecastService := services.NewForecastService(logger, store, metadataManager, m, cfg.Forecast)
	opts := handlers.Options{
		Forecasts: forecastService,
		Series:    services.NewSeriesService(logger, store, m, cfg.Forecast.MaxPoints),
		Subjects:  services.NewSubjectService(logger, metadataManager),
		Checks: map[string]handlers.HealthChecker{
			"storage": store.Ping,
		},
		Version: Version,
	}

	// Batch jobs over the queue (optional)
	var jobService *services.JobService
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err := queue.NewQueue(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()

		jobService = services.NewJobService(logger, queueClient, forecastService, m, cfg.Queue)
		if err := jobService.Start(); err != nil {
			logger.Fatal("Failed to start job worker", "error", err)
		}
		opts.Jobs = jobService
		logger.Info("Job worker started", "jobs", cfg.Queue.JobsSubject, "results", cfg.Queue.ResultsSubject)
	} else {
		logger.Info("Batch jobs disabled")
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Initialize router
	h := handlers.New(logger, opts)
	app := router.New(logger, h, registry, *cfg)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if jobService != nil {
		if err := jobService.Stop(); err != nil {
			logger.Warn("Failed to stop job worker", "error", err)
		}
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
