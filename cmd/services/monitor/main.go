package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rowsense/rowsense/internal/config"
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/queue"
	"github.com/rowsense/rowsense/internal/router"
	"github.com/rowsense/rowsense/internal/services"
	"github.com/rowsense/rowsense/internal/telemetry"
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
	logger.Info("Monitor service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Ensure data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create directories", "error", err)
	}

	// Connect to Queue (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	queueClient, err := queue.NewQueue(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = queueClient.Close() }()
	logger.Info("Queue connection established")

	// Telemetry publisher
	var publisher *telemetry.Publisher
	if cfg.Telemetry.Enabled {
		publisher = telemetry.NewPublisher(queueClient, cfg.Queue, logger)
		logger.Info("Telemetry publishing enabled",
			"interval", cfg.Telemetry.PublishInterval)
	}

	// Session recorder
	var recorder *telemetry.Recorder
	if cfg.Telemetry.RecordSessions {
		recorder, err = telemetry.NewRecorder(cfg.Telemetry.SessionDir, logger)
		if err != nil {
			logger.Fatal("Failed to create session recorder", "error", err)
		}
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Start monitor service
	monitor := services.NewMonitorService(cfg, queueClient, publisher, recorder, logger)
	if err := monitor.Start(); err != nil {
		logger.Fatal("Failed to start monitor service", "error", err)
	}

	// Initialize HTTP API
	app := router.New(logger, monitor, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	logger.Info("Monitor service started successfully",
		"impulse_subject", cfg.Queue.ImpulseSubject,
		"queue_type", cfg.Queue.Type,
		"recording", cfg.Telemetry.RecordSessions,
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := monitor.Stop(); err != nil {
		logger.Error("Failed to stop monitor service", "error", err)
	}

	logger.Info("Server exited")
}
