package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RestoreService applies staged database restores. Restores are staged into
// dataDir/restore (an archive downloaded from R2, or a bare .db copy staged
// by the health service) and executed on the next startup, before any
// database connection is opened. Applying them live would swap files under
// an open connection pool.
type RestoreService struct {
	r2         *R2Client
	dataDir    string
	restoreDir string
	log        zerolog.Logger
}

// NewRestoreService creates a new restore service. The R2 client is optional
// and only needed for staging archives from the bucket.
func NewRestoreService(r2 *R2Client, dataDir string, log zerolog.Logger) *RestoreService {
	return &RestoreService{
		r2:         r2,
		dataDir:    dataDir,
		restoreDir: filepath.Join(dataDir, "restore"),
		log:        log.With().Str("service", "restore").Logger(),
	}
}

// CheckPendingRestore reports whether anything is staged for restore.
func (s *RestoreService) CheckPendingRestore() (bool, error) {
	entries, err := os.ReadDir(s.restoreDir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read restore directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, archiveSuffix) || strings.HasSuffix(name, ".db") {
			return true, nil
		}
	}

	return false, nil
}

// StageRestore downloads a backup archive from R2 into the restore
// directory. The restore itself happens on the next startup.
func (s *RestoreService) StageRestore(ctx context.Context, filename string) error {
	if s.r2 == nil {
		return fmt.Errorf("R2 is not configured")
	}

	if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, archiveSuffix) {
		return fmt.Errorf("not a backup archive: %s", filename)
	}

	if err := os.MkdirAll(s.restoreDir, 0755); err != nil {
		return fmt.Errorf("failed to create restore directory: %w", err)
	}

	destPath := filepath.Join(s.restoreDir, filename)
	if err := s.r2.Download(ctx, filename, destPath); err != nil {
		return err
	}

	s.log.Warn().
		Str("archive", filename).
		Msg("Restore staged, will be applied on next startup")

	return nil
}

// StageLocalBackup copies a verified local backup file into the restore
// directory. Used by the health service when a database is beyond repair.
func (s *RestoreService) StageLocalBackup(backupPath, dbName string) error {
	if err := os.MkdirAll(s.restoreDir, 0755); err != nil {
		return fmt.Errorf("failed to create restore directory: %w", err)
	}

	destPath := filepath.Join(s.restoreDir, dbName+".db")
	if err := CopyFile(backupPath, destPath); err != nil {
		return fmt.Errorf("failed to stage backup: %w", err)
	}

	s.log.Warn().
		Str("database", dbName).
		Str("backup", backupPath).
		Msg("Local restore staged, will be applied on next startup")

	return nil
}

// ExecuteStagedRestore applies whatever is staged in the restore directory:
// the newest archive if any, then bare database files. The staging files
// are removed once applied.
func (s *RestoreService) ExecuteStagedRestore() error {
	entries, err := os.ReadDir(s.restoreDir)
	if err != nil {
		return fmt.Errorf("failed to read restore directory: %w", err)
	}

	var archives, bareFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, archiveSuffix):
			archives = append(archives, name)
		case strings.HasSuffix(name, ".db"):
			bareFiles = append(bareFiles, name)
		}
	}

	if len(archives) > 0 {
		// Archive names carry their timestamp, so the last one sorted is
		// the newest. Older staged archives are discarded.
		sort.Strings(archives)
		newest := archives[len(archives)-1]

		for _, name := range archives[:len(archives)-1] {
			s.log.Warn().Str("archive", name).Msg("Skipping older staged archive")
			os.Remove(filepath.Join(s.restoreDir, name))
		}

		if err := s.restoreFromArchive(filepath.Join(s.restoreDir, newest)); err != nil {
			return err
		}

		os.Remove(filepath.Join(s.restoreDir, newest))
	}

	for _, name := range bareFiles {
		stagedPath := filepath.Join(s.restoreDir, name)
		if err := s.restoreDatabaseFile(stagedPath, name); err != nil {
			return err
		}
		os.Remove(stagedPath)
	}

	s.log.Info().Msg("Staged restore completed")
	return nil
}

// restoreFromArchive extracts a backup archive, verifies every database
// against the bundled metadata, and installs the copies.
func (s *RestoreService) restoreFromArchive(archivePath string) error {
	s.log.Warn().Str("archive", filepath.Base(archivePath)).Msg("Restoring from archive")

	tempDir, err := os.MkdirTemp("", "restore_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extractArchive(archivePath, tempDir); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	metadataPath := filepath.Join(tempDir, metadataFilename)
	metadataBytes, err := os.ReadFile(metadataPath)
	if err != nil {
		return fmt.Errorf("archive has no metadata: %w", err)
	}

	var metadata BackupMetadata
	if err := json.Unmarshal(metadataBytes, &metadata); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}

	// Verify everything before touching any live database file
	for _, db := range metadata.Databases {
		extractedPath := filepath.Join(tempDir, db.Filename)

		checksum, err := fileChecksum(extractedPath)
		if err != nil {
			return fmt.Errorf("failed to checksum %s: %w", db.Filename, err)
		}
		if checksum != db.Checksum {
			return fmt.Errorf("checksum mismatch for %s", db.Filename)
		}

		if err := verifyBackupFile(extractedPath); err != nil {
			return fmt.Errorf("restored copy of %s is corrupt: %w", db.Filename, err)
		}
	}

	for _, db := range metadata.Databases {
		if err := s.restoreDatabaseFile(filepath.Join(tempDir, db.Filename), db.Filename); err != nil {
			return err
		}
	}

	s.log.Info().
		Time("backup_timestamp", metadata.Timestamp).
		Int("databases", len(metadata.Databases)).
		Msg("Archive restore completed")

	return nil
}

// restoreDatabaseFile installs a verified database copy, keeping the old
// file aside for investigation.
func (s *RestoreService) restoreDatabaseFile(sourcePath, filename string) error {
	if err := verifyBackupFile(sourcePath); err != nil {
		return fmt.Errorf("staged %s is corrupt: %w", filename, err)
	}

	livePath := filepath.Join(s.dataDir, filename)

	if _, err := os.Stat(livePath); err == nil {
		asidePath := livePath + ".pre-restore." + time.Now().Format("20060102_150405")
		if err := os.Rename(livePath, asidePath); err != nil {
			return fmt.Errorf("failed to move %s aside: %w", filename, err)
		}
		s.log.Info().Str("path", asidePath).Msg("Previous database file kept aside")
	}

	// Stale WAL and SHM files must not outlive the replaced main file
	os.Remove(livePath + "-wal")
	os.Remove(livePath + "-shm")

	if err := CopyFile(sourcePath, livePath); err != nil {
		return fmt.Errorf("failed to install %s: %w", filename, err)
	}

	s.log.Info().Str("database", filename).Msg("Database restored")
	return nil
}

// extractArchive unpacks a tar.gz archive into destDir, rejecting entries
// that would escape it.
func extractArchive(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Clean(header.Name)
		if strings.Contains(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}

		destPath := filepath.Join(destDir, name)
		out, err := os.Create(destPath)
		if err != nil {
			return err
		}

		if _, err := io.Copy(out, tarReader); err != nil {
			out.Close()
			return err
		}

		if err := out.Close(); err != nil {
			return err
		}
	}

	return nil
}
