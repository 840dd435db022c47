// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/config"
	"github.com/adarsh-anand15/quantum-learning/internal/reliability"
	"github.com/adarsh-anand15/quantum-learning/internal/scheduler"
)

// Job schedules (second minute hour day month weekday)
const (
	dailyBackupSchedule       = "0 30 1 * * *" // 1:30 AM daily, before maintenance verifies it
	dailyMaintenanceSchedule  = "0 0 2 * * *"  // 2 AM daily
	weeklyMaintenanceSchedule = "0 0 3 * * 0"  // 3 AM Sundays
)

// RegisterJobs creates the scheduler and registers all calendar jobs.
// Interval and on-demand work goes through the work processor instead.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)

	// Nightly backup: local copies of both databases, plus an R2 archive
	// upload when configured and enabled.
	backupJob := reliability.NewDailyBackupJob(
		container.BackupService,
		container.R2BackupService,
		container.SettingsService,
		container.EventManager,
		log,
	)
	if err := sched.AddJob(dailyBackupSchedule, backupJob); err != nil {
		return fmt.Errorf("failed to register daily backup job: %w", err)
	}

	// Daily maintenance: integrity checks with recovery, WAL checkpoints,
	// disk space gate, verification of last night's backup.
	dailyMaintenance := reliability.NewDailyMaintenanceJob(
		container.Databases(),
		container.HealthServices,
		cfg.BackupDir,
		container.EventManager,
		log,
	)
	if err := sched.AddJob(dailyMaintenanceSchedule, dailyMaintenance); err != nil {
		return fmt.Errorf("failed to register daily maintenance job: %w", err)
	}

	// Weekly maintenance: VACUUM both databases.
	weeklyMaintenance := reliability.NewWeeklyMaintenanceJob(
		container.Databases(),
		container.EventManager,
		log,
	)
	if err := sched.AddJob(weeklyMaintenanceSchedule, weeklyMaintenance); err != nil {
		return fmt.Errorf("failed to register weekly maintenance job: %w", err)
	}

	container.Scheduler = sched

	log.Info().Msg("Scheduled jobs registered")

	return nil
}
