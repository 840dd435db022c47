package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
)

// r2UploadTimeout bounds the archive upload plus rotation. Archives are a
// few MB of compressed SQLite, so this is generous.
const r2UploadTimeout = 10 * time.Minute

// BackupSettings exposes the runtime toggles the backup job consults.
// The settings service satisfies this.
type BackupSettings interface {
	BackupEnabled() bool
	R2BackupEnabled() bool
	R2RetentionDays() int
}

// DailyBackupJob runs the local daily backup and, when configured, uploads
// an archive to R2 and rotates old ones.
type DailyBackupJob struct {
	local    *BackupService
	r2       *R2BackupService // nil when R2 is not configured
	settings BackupSettings
	bus      *events.Manager
	log      zerolog.Logger
}

// NewDailyBackupJob creates a new daily backup job
func NewDailyBackupJob(
	local *BackupService,
	r2 *R2BackupService,
	settings BackupSettings,
	bus *events.Manager,
	log zerolog.Logger,
) *DailyBackupJob {
	return &DailyBackupJob{
		local:    local,
		r2:       r2,
		settings: settings,
		bus:      bus,
		log:      log.With().Str("job", "daily_backup").Logger(),
	}
}

// Run executes the daily backup
func (j *DailyBackupJob) Run() error {
	if !j.settings.BackupEnabled() {
		j.log.Debug().Msg("Backups disabled, skipping")
		return nil
	}

	startTime := time.Now()

	if err := j.local.DailyBackup(); err != nil {
		return err
	}

	uploaded := false
	var archive string
	var sizeBytes int64

	if j.r2 != nil && j.settings.R2BackupEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), r2UploadTimeout)
		defer cancel()

		info, err := j.r2.CreateAndUploadBackup(ctx)
		if err != nil {
			// The local backup succeeded, so an upload failure is not fatal
			j.log.Error().Err(err).Msg("R2 upload failed")
		} else {
			uploaded = true
			archive = info.Filename
			sizeBytes = info.SizeBytes

			if err := j.r2.RotateOldBackups(ctx, j.settings.R2RetentionDays()); err != nil {
				j.log.Warn().Err(err).Msg("R2 rotation failed")
			}
		}
	}

	if j.bus != nil {
		j.bus.EmitTyped(events.BackupCompleted, "reliability", &events.BackupData{
			Archive:   archive,
			SizeBytes: sizeBytes,
			Databases: j.local.GetDatabaseNames(true),
			Uploaded:  uploaded,
			Duration:  time.Since(startTime).Seconds(),
		})
	}

	return nil
}

// Name returns the job name for scheduler
func (j *DailyBackupJob) Name() string {
	return "daily_backup"
}
