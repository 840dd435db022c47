package reliability

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/database"
	"github.com/rs/zerolog"
)

// Daily backup directories older than this are rotated out.
const dailyBackupRetentionDays = 30

// BackupService manages local database backups under backupDir/daily/.
// Each night produces a dated directory of consistent sqlite copies taken
// with VACUUM INTO, verified before the previous night is trusted.
type BackupService struct {
	databases map[string]*database.DB
	dataDir   string
	backupDir string
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(
	databases map[string]*database.DB,
	dataDir string,
	backupDir string,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		databases: databases,
		dataDir:   dataDir,
		backupDir: backupDir,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// GetDatabaseNames returns the database names covered by backups, runs first.
// The cache database holds only re-renderable plot images and work state, so
// callers can exclude it for cheaper archives.
func (s *BackupService) GetDatabaseNames(includeCache bool) []string {
	names := []string{"runs"}
	if includeCache {
		if _, ok := s.databases["cache"]; ok {
			names = append(names, "cache")
		}
	}
	return names
}

// DailyBackup performs the nightly local backup of all databases.
// Keeps the last 30 days, rotates older backups.
func (s *BackupService) DailyBackup() error {
	s.log.Info().Msg("Starting daily backup")
	startTime := time.Now()

	date := time.Now().Format("2006-01-02")
	dailyDir := filepath.Join(s.backupDir, "daily", date)
	if err := os.MkdirAll(dailyDir, 0755); err != nil {
		return fmt.Errorf("failed to create daily backup directory: %w", err)
	}

	var failed int
	for dbName := range s.databases {
		backupPath := filepath.Join(dailyDir, dbName+".db")

		if err := s.BackupDatabase(dbName, backupPath); err != nil {
			s.log.Error().
				Str("database", dbName).
				Err(err).
				Msg("Failed to backup database")
			failed++
			continue
		}

		if err := verifyBackupFile(backupPath); err != nil {
			s.log.Error().
				Str("database", dbName).
				Err(err).
				Msg("Backup verification failed")
			os.Remove(backupPath)
			failed++
		}
	}

	if failed > 0 && failed == len(s.databases) {
		return fmt.Errorf("all %d database backups failed", failed)
	}

	if err := s.rotateDailyBackups(); err != nil {
		s.log.Error().Err(err).Msg("Failed to rotate daily backups")
		// The backup itself succeeded
	}

	s.log.Info().
		Dur("duration", time.Since(startTime)).
		Str("backup_dir", dailyDir).
		Msg("Daily backup completed")

	return nil
}

// BackupDatabase writes a consistent copy of a single database using
// SQLite's VACUUM INTO. The copy carries no WAL file and is compacted.
func (s *BackupService) BackupDatabase(dbName, backupPath string) error {
	db, ok := s.databases[dbName]
	if !ok {
		return fmt.Errorf("database %s not found", dbName)
	}

	s.log.Debug().
		Str("database", dbName).
		Str("backup_path", backupPath).
		Msg("Backing up database")

	// VACUUM INTO fails if the target exists
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear backup target: %w", err)
	}

	_, err := db.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", backupPath))
	if err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	s.log.Debug().
		Str("database", dbName).
		Float64("size_mb", float64(info.Size())/1024/1024).
		Msg("Backup created")

	return nil
}

// verifyBackupFile opens a backup copy and runs an integrity check on it.
func verifyBackupFile(backupPath string) error {
	backupDB, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer backupDB.Close()

	var result string
	err = backupDB.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// rotateDailyBackups deletes dated backup directories past retention.
func (s *BackupService) rotateDailyBackups() error {
	dailyDir := filepath.Join(s.backupDir, "daily")
	cutoff := time.Now().AddDate(0, 0, -dailyBackupRetentionDays)

	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		return fmt.Errorf("failed to read daily backup directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirDate, err := time.Parse("2006-01-02", entry.Name())
		if err != nil {
			s.log.Warn().
				Str("dir", entry.Name()).
				Msg("Failed to parse date from directory name")
			continue
		}

		if dirDate.Before(cutoff) {
			path := filepath.Join(dailyDir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				s.log.Warn().
					Str("path", path).
					Err(err).
					Msg("Failed to delete old daily backup")
			} else {
				s.log.Debug().
					Str("path", path).
					Msg("Deleted old daily backup")
			}
		}
	}

	return nil
}

// RestoreFromBackup returns the path of the most recent backup for a
// database, for use by the auto-recovery system.
func (s *BackupService) RestoreFromBackup(dbName string) (string, error) {
	s.log.Warn().
		Str("database", dbName).
		Msg("Searching for backup to restore")

	backupPath := s.findMostRecentBackup(dbName + ".db")
	if backupPath == "" {
		return "", fmt.Errorf("no backup found for %s", dbName)
	}

	s.log.Info().
		Str("backup", backupPath).
		Msg("Found backup")

	return backupPath, nil
}

// findMostRecentBackup searches the backup tree for the newest file with
// the given basename.
func (s *BackupService) findMostRecentBackup(filename string) string {
	var mostRecent string
	var mostRecentTime time.Time

	if err := filepath.Walk(s.backupDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if filepath.Base(path) == filename && info.ModTime().After(mostRecentTime) {
			mostRecent = path
			mostRecentTime = info.ModTime()
		}

		return nil
	}); err != nil {
		s.log.Warn().Err(err).Str("base_dir", s.backupDir).Msg("Error walking directory for backup search")
	}

	return mostRecent
}
