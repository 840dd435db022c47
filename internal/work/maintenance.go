package work

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// plotCacheRetention is how long rendered plots stay cached before the
// hourly prune drops them. Re-rendering is cheap, so the window is short.
const plotCacheRetention = 7 * 24 * time.Hour

// runRetentionKeepMin is the number of most recent runs the retention
// sweep always keeps regardless of age.
const runRetentionKeepMin = 25

// CachePruner removes expired work cache rows.
type CachePruner interface {
	PruneExpired() (int64, error)
}

// PlotCachePruner removes rendered plots older than a cutoff.
type PlotCachePruner interface {
	PruneOlderThan(cutoff time.Time) (int64, error)
}

// Checkpointer compacts the write-ahead logs of the databases.
type Checkpointer interface {
	CheckpointDatabases() error
}

// RunPruner deletes finished runs older than a cutoff, always keeping
// the keepMin most recent ones.
type RunPruner interface {
	PruneOlderThan(cutoff time.Time, keepMin int) (int64, error)
}

// RetentionPolicy supplies the configured run retention window in days.
type RetentionPolicy interface {
	RetentionDays() int
}

// MaintenanceDeps contains all dependencies for maintenance work types.
type MaintenanceDeps struct {
	Cache      CachePruner
	PlotCache  PlotCachePruner
	Checkpoint Checkpointer
	Runs       RunPruner
	Retention  RetentionPolicy
}

// RegisterMaintenanceWorkTypes registers the housekeeping work types.
func RegisterMaintenanceWorkTypes(registry *Registry, deps *MaintenanceDeps) {
	// cache:prune - drop expired cache rows and stale rendered plots
	registry.Register(&WorkType{
		ID:       "cache:prune",
		Name:     "Prune expired caches",
		Priority: PriorityLow,
		Interval: time.Hour,
		Timeout:  time.Minute,
		FindSubjects: func(ctx context.Context) ([]string, error) {
			return []string{""}, nil
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			expired, err := deps.Cache.PruneExpired()
			if err != nil {
				return fmt.Errorf("failed to prune cache: %w", err)
			}

			plots, err := deps.PlotCache.PruneOlderThan(time.Now().Add(-plotCacheRetention))
			if err != nil {
				return fmt.Errorf("failed to prune plot cache: %w", err)
			}

			if expired > 0 || plots > 0 {
				log.Info().Int64("cache_rows", expired).Int64("plots", plots).Msg("pruned caches")
			}
			return nil
		},
	})

	// db:checkpoint - compact the WAL files so they don't grow unbounded
	registry.Register(&WorkType{
		ID:       "db:checkpoint",
		Name:     "Checkpoint databases",
		Priority: PriorityLow,
		Interval: 6 * time.Hour,
		Timeout:  time.Minute,
		FindSubjects: func(ctx context.Context) ([]string, error) {
			return []string{""}, nil
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			if err := deps.Checkpoint.CheckpointDatabases(); err != nil {
				return fmt.Errorf("failed to checkpoint databases: %w", err)
			}
			return nil
		},
	})

	// runs:cleanup - enforce the configured run retention window
	registry.Register(&WorkType{
		ID:       "runs:cleanup",
		Name:     "Delete runs past retention",
		Priority: PriorityLow,
		Interval: 24 * time.Hour,
		Timeout:  time.Minute,
		FindSubjects: func(ctx context.Context) ([]string, error) {
			// Retention zero or negative disables the sweep entirely.
			if deps.Retention.RetentionDays() <= 0 {
				return nil, nil
			}
			return []string{""}, nil
		},
		Execute: func(ctx context.Context, subject string, progress *ProgressReporter) error {
			days := deps.Retention.RetentionDays()
			if days <= 0 {
				return nil
			}

			cutoff := time.Now().AddDate(0, 0, -days)
			deleted, err := deps.Runs.PruneOlderThan(cutoff, runRetentionKeepMin)
			if err != nil {
				return fmt.Errorf("failed to prune old runs: %w", err)
			}

			if deleted > 0 {
				log.Info().Int64("runs", deleted).Int("retention_days", days).Msg("pruned old runs")
			}
			return nil
		},
	})
}
