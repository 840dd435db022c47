/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the HTTP server for access to services.
 */
package di

import (
	"errors"
	"fmt"

	"github.com/adarsh-anand15/quantum-learning/internal/database"
	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/plots"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/settings"
	"github.com/adarsh-anand15/quantum-learning/internal/reliability"
	"github.com/adarsh-anand15/quantum-learning/internal/scheduler"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/adarsh-anand15/quantum-learning/internal/work"
)

/**
 * Container holds all dependencies for the application.
 *
 * This is the single source of truth for all service instances.
 * The container is created by Wire() and handed to the HTTP server.
 *
 * Architecture:
 * - Databases: runs.db (run records, traces, settings) and cache.db (work cache, rendered plots)
 * - Repositories: data access layer over the two databases
 * - Services: synthesis engine, run lifecycle, plot rendering, settings
 * - Reliability: health checks, local and cloud backups, restore staging
 * - Work Components: background processor draining queued runs and housekeeping
 * - Scheduler: calendar jobs (nightly backup, maintenance)
 *
 * All dependencies are injected via constructor injection.
 */
type Container struct {
	// Databases
	RunsDB  *database.DB // Run records, optimization traces, settings
	CacheDB *database.DB // Ephemeral data (work cache, rendered plots)

	// Repositories - Data access layer
	RunsRepo     *runs.Repository     // Run lifecycle records
	SettingsRepo *settings.Repository // Application settings K/V
	WorkCache    *work.Cache          // TTL cache rows in cache.db

	// Event system
	EventBus     *events.Bus     // Event bus for pub/sub
	EventManager *events.Manager // Event manager (wraps bus)

	// Services - Business logic layer
	SettingsService *settings.Service // Settings validation and typed accessors
	PresetStore     *runs.PresetStore // Embedded + on-disk experiment presets
	Engine          *synthesis.Engine // Circuit synthesis engine
	RunsService     *runs.Service     // Run submission, cancellation, retrieval
	Executor        *runs.Executor    // Claims and executes queued runs
	PlotsCache      *plots.Cache      // Rendered PNG cache
	PlotsService    *plots.Service    // Plot rendering orchestration

	// Reliability
	HealthServices  map[string]*reliability.DatabaseHealthService // Integrity checks per database
	BackupService   *reliability.BackupService                    // Local database backups
	R2Client        *reliability.R2Client                         // Cloudflare R2 client (optional)
	R2BackupService *reliability.R2BackupService                  // R2 archive backups (optional)
	RestoreService  *reliability.RestoreService                   // Staged restore handling

	// Work Processor - Background execution of runs and housekeeping
	WorkComponents *WorkComponents

	// Scheduler - Calendar jobs (maintenance, backups)
	Scheduler *scheduler.Scheduler
}

// Databases returns the open databases keyed by name.
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"runs":  c.RunsDB,
		"cache": c.CacheDB,
	}
}

// Close releases container resources in reverse initialization order.
// Background goroutines (processor, scheduler, server) must be stopped
// before calling this.
func (c *Container) Close() error {
	var errs []error

	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache database: %w", err))
		}
	}
	if c.RunsDB != nil {
		if err := c.RunsDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close runs database: %w", err))
		}
	}

	return errors.Join(errs...)
}
