// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/settings"
	"github.com/adarsh-anand15/quantum-learning/internal/work"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Run repository (needs runsDB)
	container.RunsRepo = runs.NewRepository(
		container.RunsDB.Conn(),
		log,
	)

	// Settings repository (needs runsDB)
	container.SettingsRepo = settings.NewRepository(
		container.RunsDB.Conn(),
		log,
	)

	// Work cache over the cache table (needs cacheDB). Also serves as the
	// backup metadata store.
	container.WorkCache = work.NewCache(container.CacheDB.Conn())

	log.Info().Msg("All repositories initialized")

	return nil
}
