package reliability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/adarsh-anand15/quantum-learning/internal/database"
	"github.com/adarsh-anand15/quantum-learning/internal/events"
)

// DailyMaintenanceJob performs daily database maintenance (2 AM):
// integrity checks with recovery, WAL checkpoints, disk space checks and
// verification of the previous day's backups.
type DailyMaintenanceJob struct {
	databases      map[string]*database.DB
	healthServices map[string]*DatabaseHealthService
	backupDir      string
	bus            *events.Manager
	log            zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(
	databases map[string]*database.DB,
	healthServices map[string]*DatabaseHealthService,
	backupDir string,
	bus *events.Manager,
	log zerolog.Logger,
) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases:      databases,
		healthServices: healthServices,
		backupDir:      backupDir,
		bus:            bus,
		log:            log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()
	errs := 0

	// Step 1: Integrity check and recovery for all databases
	for name, healthService := range j.healthServices {
		j.log.Debug().Str("database", name).Msg("Running integrity check")

		if err := healthService.CheckAndRecover(); err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("CRITICAL: Failed to recover database")
			return fmt.Errorf("CRITICAL: failed to recover %s: %w", name, err)
		}
	}

	// Step 2: WAL checkpoint for all databases (prevent bloat)
	for name, db := range j.databases {
		j.log.Debug().Str("database", name).Msg("Running WAL checkpoint")

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().
				Str("database", name).
				Err(err).
				Msg("WAL checkpoint failed")
			errs++
		}
	}

	// Step 3: Check disk space
	if err := j.checkDiskSpace(); err != nil {
		return err // HALT if critical
	}

	// Step 4: Verify yesterday's backups
	if err := j.verifyBackups(); err != nil {
		j.log.Error().Err(err).Msg("Backup verification failed")
		errs++
		// Not fatal, today's backup is still ahead
	}

	// Step 5: Log database sizes so growth is visible over time
	j.analyzeDatabaseGrowth()

	duration := time.Since(startTime)
	j.log.Info().
		Dur("duration_ms", duration).
		Int("errors", errs).
		Msg("Daily maintenance completed")

	if j.bus != nil {
		j.bus.EmitTyped(events.MaintenanceCompleted, "reliability", &events.MaintenanceData{
			Task:     "daily",
			Duration: duration.Seconds(),
			Errors:   errs,
		})
	}

	return nil
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// checkDiskSpace verifies sufficient disk space is available
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	dataDir := filepath.Dir(j.backupDir)
	usage, err := disk.Usage(dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9

	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	// CRITICAL: Less than 500MB
	if availableGB < 0.5 {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space - HALTING SYSTEM")
		return fmt.Errorf("CRITICAL: only %.2f GB free - system halted", availableGB)
	}

	// ERROR: Less than 5GB
	if availableGB < 5.0 {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("Low disk space - consider cleanup")
	}

	// WARNING: Less than 10GB
	if availableGB < 10.0 {
		j.log.Warn().
			Float64("available_gb", availableGB).
			Msg("Disk space running low")
	}

	return nil
}

// verifyBackups checks integrity of yesterday's backups
func (j *DailyMaintenanceJob) verifyBackups() error {
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	dailyBackupDir := filepath.Join(j.backupDir, "daily", yesterday)

	if _, err := os.Stat(dailyBackupDir); os.IsNotExist(err) {
		return fmt.Errorf("yesterday's backup directory not found: %s", dailyBackupDir)
	}

	for dbName := range j.databases {
		backupPath := filepath.Join(dailyBackupDir, dbName+".db")

		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			j.log.Error().
				Str("database", dbName).
				Str("path", backupPath).
				Msg("Backup file missing")
			continue
		}

		if err := verifyBackupFile(backupPath); err != nil {
			j.log.Error().
				Str("database", dbName).
				Err(err).
				Msg("Backup integrity check failed")
		} else {
			j.log.Debug().
				Str("database", dbName).
				Msg("Backup verified")
		}
	}

	return nil
}

// analyzeDatabaseGrowth logs current database and WAL sizes
func (j *DailyMaintenanceJob) analyzeDatabaseGrowth() {
	for name, healthService := range j.healthServices {
		metrics, err := healthService.GetMetrics()
		if err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("Failed to get metrics")
			continue
		}

		j.log.Info().
			Str("database", name).
			Float64("size_mb", metrics.SizeMB).
			Float64("wal_size_mb", metrics.WALSizeMB).
			Msg("Database metrics")
	}
}

// WeeklyMaintenanceJob performs weekly database maintenance (Sunday 3 AM).
// Run results accumulate in the runs database and rendered plots in the
// cache, so both benefit from a periodic VACUUM.
type WeeklyMaintenanceJob struct {
	databases map[string]*database.DB
	bus       *events.Manager
	log       zerolog.Logger
}

// NewWeeklyMaintenanceJob creates a new weekly maintenance job
func NewWeeklyMaintenanceJob(
	databases map[string]*database.DB,
	bus *events.Manager,
	log zerolog.Logger,
) *WeeklyMaintenanceJob {
	return &WeeklyMaintenanceJob{
		databases: databases,
		bus:       bus,
		log:       log.With().Str("job", "weekly_maintenance").Logger(),
	}
}

// Run executes the weekly maintenance job
func (j *WeeklyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting weekly maintenance")
	startTime := time.Now()
	errs := 0
	totalReclaimed := 0.0

	for name, db := range j.databases {
		j.log.Info().Str("database", name).Msg("Running VACUUM")

		reclaimed, err := j.vacuumDatabase(db, name)
		if err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("VACUUM failed")
			errs++
			continue
		}
		totalReclaimed += reclaimed
	}

	duration := time.Since(startTime)
	j.log.Info().
		Dur("duration_ms", duration).
		Float64("space_reclaimed_mb", totalReclaimed).
		Msg("Weekly maintenance completed")

	if j.bus != nil {
		j.bus.EmitTyped(events.MaintenanceCompleted, "reliability", &events.MaintenanceData{
			Task:     "weekly",
			Duration: duration.Seconds(),
			Errors:   errs,
			Details: map[string]interface{}{
				"space_reclaimed_mb": totalReclaimed,
			},
		})
	}

	return nil
}

// Name returns the job name for scheduler
func (j *WeeklyMaintenanceJob) Name() string {
	return "weekly_maintenance"
}

// vacuumDatabase performs VACUUM on a database and reports reclaimed MB
func (j *WeeklyMaintenanceJob) vacuumDatabase(db *database.DB, name string) (float64, error) {
	before, err := db.GetStats()
	if err != nil {
		return 0, err
	}
	sizeBefore := float64(before.PageCount*before.PageSize) / 1024 / 1024

	if err := db.Vacuum(); err != nil {
		return 0, err
	}

	after, err := db.GetStats()
	if err != nil {
		return 0, err
	}
	sizeAfter := float64(after.PageCount*after.PageSize) / 1024 / 1024
	spaceReclaimed := sizeBefore - sizeAfter

	j.log.Info().
		Str("database", name).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", spaceReclaimed).
		Msg("VACUUM completed")

	return spaceReclaimed, nil
}
