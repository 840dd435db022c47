// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/config"
)

// Wire initializes all dependencies and returns a fully configured container
// This is the main entry point for dependency injection
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Apply stored settings overrides to the config
// 4. Initialize services
// 5. Initialize work components
// 6. Register scheduled jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Step 1: Initialize databases
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Step 2: Initialize repositories
	if err := InitializeRepositories(container, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Step 3: Stored settings override the environment. This must happen
	// before services are built so slot counts and timeouts bind to the
	// effective values.
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to apply settings overrides: %w", err)
	}

	// Step 4: Initialize services
	if err := InitializeServices(container, cfg, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 5: Initialize work processor components
	workComponents, err := InitializeWork(container, cfg, log)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize work components: %w", err)
	}
	container.WorkComponents = workComponents

	// Step 6: Register scheduled jobs
	if err := RegisterJobs(container, cfg, log); err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
