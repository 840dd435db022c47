// Package di provides dependency injection for service implementations.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/config"
	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/plots"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/settings"
	"github.com/adarsh-anand15/quantum-learning/internal/reliability"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// InitializeServices creates all services and stores them in the container
// This is the SINGLE SOURCE OF TRUTH for all service creation
// Services are created in dependency order to ensure all dependencies exist
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// ==========================================
	// STEP 1: Event system
	// ==========================================

	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	// ==========================================
	// STEP 2: Settings and presets
	// ==========================================

	container.SettingsService = settings.NewService(container.SettingsRepo, log)

	presetStore, err := runs.NewPresetStore(cfg.PresetsDir, log)
	if err != nil {
		return fmt.Errorf("failed to initialize preset store: %w", err)
	}
	container.PresetStore = presetStore

	// ==========================================
	// STEP 3: Synthesis engine and run lifecycle
	// ==========================================

	container.Engine = synthesis.NewEngine(log, cfg.FDWorkers)

	// The settings service provides default hyperparameters so stored
	// overrides apply to new submissions without a restart.
	container.RunsService = runs.NewService(
		container.RunsRepo,
		container.EventManager,
		container.SettingsService,
		log,
	)

	container.Executor = runs.NewExecutor(
		container.RunsRepo,
		container.Engine,
		container.EventManager,
		cfg.MaxRunTimeout(),
		log,
	)

	// ==========================================
	// STEP 4: Plot rendering
	// ==========================================

	container.PlotsCache = plots.NewCache(container.CacheDB.Conn(), log)
	container.PlotsService = plots.NewService(container.RunsService, container.PlotsCache, log)

	// ==========================================
	// STEP 5: Reliability (backups, health checks, restore)
	// ==========================================

	// R2 client first: the restore service stages archives through it and
	// the backup service uploads through it. Optional; everything else
	// works without it.
	if cfg.R2.Enabled {
		r2Client, err := reliability.NewR2Client(
			cfg.R2.Endpoint,
			cfg.R2.AccessKeyID,
			cfg.R2.SecretAccessKey,
			cfg.R2.Bucket,
			log,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize R2 client - R2 backup disabled")
		} else {
			container.R2Client = r2Client
		}
	} else {
		log.Debug().Msg("R2 not configured - cloud backup disabled")
	}

	container.RestoreService = reliability.NewRestoreService(container.R2Client, cfg.DataDir, log)

	container.HealthServices = make(map[string]*reliability.DatabaseHealthService)
	for name, db := range container.Databases() {
		container.HealthServices[name] = reliability.NewDatabaseHealthService(
			db,
			cfg.BackupDir,
			container.RestoreService,
			log,
		)
	}

	container.BackupService = reliability.NewBackupService(
		container.Databases(),
		cfg.DataDir,
		cfg.BackupDir,
		log,
	)

	if container.R2Client != nil {
		container.R2BackupService = reliability.NewR2BackupService(
			container.R2Client,
			container.BackupService,
			container.WorkCache,
			cfg.DataDir,
			log,
		)
		log.Info().Msg("R2 cloud backup services initialized")
	}

	log.Info().Msg("All services initialized")

	return nil
}
