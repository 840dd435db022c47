// Package di provides dependency injection for the work processor.
package di

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/config"
	"github.com/adarsh-anand15/quantum-learning/internal/database"
	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/work"
)

// WorkComponents holds all work processor components
type WorkComponents struct {
	Registry   *work.Registry
	Completion *work.CompletionTracker
	Processor  *work.Processor
	Handlers   *work.Handlers
}

// eventEmitterAdapter adapts events.Manager to work.EventEmitter
type eventEmitterAdapter struct {
	manager *events.Manager
}

func (a *eventEmitterAdapter) Emit(event string, data any) {
	if a.manager == nil {
		return
	}

	// Lifecycle payloads are plain structs; flatten them through JSON so
	// stream clients see the same field names the structs declare.
	details, ok := data.(map[string]interface{})
	if !ok && data != nil {
		raw, err := json.Marshal(data)
		if err != nil || json.Unmarshal(raw, &details) != nil {
			details = map[string]interface{}{"data": data}
		}
	}

	a.manager.Emit(events.EventType(event), "work", details)
}

// databaseCheckpointer runs WAL checkpoints across the databases for the
// db:checkpoint work type.
type databaseCheckpointer struct {
	databases map[string]*database.DB
}

func (c *databaseCheckpointer) CheckpointDatabases() error {
	for name, db := range c.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			return fmt.Errorf("failed to checkpoint %s: %w", name, err)
		}
	}
	return nil
}

// InitializeWork creates and wires up all work processor components
func InitializeWork(container *Container, cfg *config.Config, log zerolog.Logger) (*WorkComponents, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	// Create core components
	registry := work.NewRegistry()
	completion := work.NewCompletionTracker()
	emitter := &eventEmitterAdapter{manager: container.EventManager}
	processor := work.NewProcessor(registry, completion, emitter, cfg.MaxConcurrentRuns)

	// Register run execution work types
	work.RegisterRunWorkTypes(registry, &work.RunDeps{
		Queue:    container.RunsService,
		Executor: container.Executor,
	})

	// Register maintenance work types
	work.RegisterMaintenanceWorkTypes(registry, &work.MaintenanceDeps{
		Cache:      container.WorkCache,
		PlotCache:  container.PlotsCache,
		Checkpoint: &databaseCheckpointer{databases: container.Databases()},
		Runs:       container.RunsRepo,
		Retention:  container.SettingsService,
	})

	// Cancelling a running run flows service -> processor
	container.RunsService.SetCanceller(processor)

	// A queued run wakes the processor immediately instead of waiting for
	// the next scan interval
	container.EventBus.Subscribe(events.RunQueued, func(e *events.Event) {
		processor.Trigger()
	})

	handlers := work.NewHandlers(processor, registry, completion)

	log.Info().Int("work_types", registry.Count()).Msg("Work processor initialized")

	return &WorkComponents{
		Registry:   registry,
		Completion: completion,
		Processor:  processor,
		Handlers:   handlers,
	}, nil
}
