// Package main is the entry point for the quantum-learning service.
// The application trains parameterized photonic circuits against target
// gates and states, tracks optimization runs in SQLite, and serves the
// results over a REST API with a live event stream.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/config"
	"github.com/adarsh-anand15/quantum-learning/internal/di"
	"github.com/adarsh-anand15/quantum-learning/internal/reliability"
	"github.com/adarsh-anand15/quantum-learning/internal/server"
	"github.com/adarsh-anand15/quantum-learning/pkg/logger"
)

// main is the application entry point. It orchestrates the entire system
// startup sequence:
// 1. Loads configuration from environment variables
// 2. Initializes the logging system
// 3. Checks for and executes pending database restores (if any)
// 4. Wires all dependencies via DI container (databases, repositories,
//    services, work processor, scheduled jobs)
// 5. Starts the HTTP server for API endpoints
// 6. Starts the work processor and the cron scheduler
// 7. Waits for a shutdown signal and performs graceful shutdown
//
// The application uses a 2-database architecture:
// - runs.db: Optimization run lifecycle and results, plus settings
// - cache.db: Ephemeral operational data (work history, plot cache,
//   backup metadata)
func main() {
	// Load configuration first to get log level
	// Configuration is loaded from environment variables (.env file); a
	// subset is overridden later from the settings database inside di.Wire.
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		// This ensures we can log the configuration error even if config loading fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	// Logger uses structured logging (zerolog) with configurable log levels
	// Pretty mode enables human-readable output for development
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	// Packages that log through the zerolog global (work processor,
	// maintenance sweeps) should use the same writer and level
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting quantum-learning")

	// Check for pending restore BEFORE initializing databases
	// This ensures restores are applied before any database connections are
	// opened. Restores are staged by the backup service and executed on next
	// startup, which prevents partial restores of a running system.
	restoreSvc := reliability.NewRestoreService(nil, cfg.DataDir, log)
	hasPendingRestore, err := restoreSvc.CheckPendingRestore()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check for pending restore")
	}

	if hasPendingRestore {
		log.Warn().Msg("Pending restore detected, executing staged restore...")
		if err := restoreSvc.ExecuteStagedRestore(); err != nil {
			log.Fatal().Err(err).Msg("Failed to execute staged restore")
		}
		log.Info().Msg("Restore completed successfully, proceeding with normal startup")
	}

	// Wire all dependencies using DI container
	// This initializes databases, repositories, services, the work processor
	// and the scheduled jobs. Settings stored in the database override the
	// environment during wiring, so slot counts and timeouts reflect what the
	// user last saved.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// Cleanup databases on exit
	// Both databases must be closed so WAL checkpoints are written. Using
	// defer ensures cleanup even on panic.
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing databases")
		}
	}()

	// Initialize HTTP server
	// Pass container to server so it can use all services.
	// The HTTP server provides REST API endpoints for:
	// - Run management (submit, list, cancel, results, export)
	// - Preset and target catalogs
	// - Plot rendering (training trace, Wigner function, photon distribution)
	// - Settings management
	// - System operations (health checks, backups, work processor control)
	srv := server.New(server.Config{
		Log:       log,
		RunsDB:    container.RunsDB,
		CacheDB:   container.CacheDB,
		Config:    cfg,
		Container: container,
	})

	// Start server in goroutine
	// The HTTP server runs in a separate goroutine so it doesn't block the
	// main thread. This allows the work processor and scheduler to start
	// concurrently.
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Start work processor (queue-driven background execution)
	// The work processor claims queued optimization runs up to the configured
	// slot count and executes maintenance work. Runs can be triggered by
	// submission events, cron schedules, or manual API calls.
	if container.WorkComponents != nil && container.WorkComponents.Processor != nil {
		go container.WorkComponents.Processor.Run()
		log.Info().Msg("Work processor started")
	}

	// Start cron scheduler (nightly backup, daily and weekly maintenance)
	if container.Scheduler != nil {
		container.Scheduler.Start()
		log.Info().Msg("Scheduler started")
	}

	// Wait for interrupt signal
	// The application blocks here until it receives SIGINT (Ctrl+C) or
	// SIGTERM (kill command).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop scheduler
	// Stopping the scheduler prevents new cron jobs from firing during
	// shutdown. A job already running completes on its own goroutine.
	if container.Scheduler != nil {
		container.Scheduler.Stop()
		log.Info().Msg("Scheduler stopped")
	}

	// Stop work processor
	// Stopping the processor prevents new runs from starting during shutdown.
	// In-flight optimizations are cancelled through their run contexts.
	if container.WorkComponents != nil && container.WorkComponents.Processor != nil {
		container.WorkComponents.Processor.Stop()
		log.Info().Msg("Work processor stopped")
	}

	// Graceful shutdown
	// The HTTP server is given up to 10 seconds to finish processing
	// in-flight requests. The status monitor is stopped as part of the
	// server shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// All dependency wiring is handled by di.Wire()
// The DI container initializes:
//   - internal/di/databases.go (database initialization)
//   - internal/di/repositories.go (repository creation)
//   - internal/di/services.go (service creation)
//   - internal/di/work.go (work processor registration)
//   - internal/di/jobs.go (cron job registration)
//   - internal/di/wire.go (main orchestration)
