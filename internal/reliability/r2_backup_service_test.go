package reliability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarsh-anand15/quantum-learning/pkg/logger"
)

func TestFileChecksum(t *testing.T) {
	t.Run("returns stable sha256 digest", func(t *testing.T) {
		tempDir := t.TempDir()
		path := filepath.Join(tempDir, "file.bin")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

		sum1, err := fileChecksum(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sum1, "sha256:"))
		assert.Len(t, sum1, len("sha256:")+64)

		sum2, err := fileChecksum(path)
		require.NoError(t, err)
		assert.Equal(t, sum1, sum2)
	})

	t.Run("differs for different content", func(t *testing.T) {
		tempDir := t.TempDir()
		pathA := filepath.Join(tempDir, "a.bin")
		pathB := filepath.Join(tempDir, "b.bin")
		require.NoError(t, os.WriteFile(pathA, []byte("content a"), 0644))
		require.NoError(t, os.WriteFile(pathB, []byte("content b"), 0644))

		sumA, err := fileChecksum(pathA)
		require.NoError(t, err)
		sumB, err := fileChecksum(pathB)
		require.NoError(t, err)

		assert.NotEqual(t, sumA, sumB)
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := fileChecksum(filepath.Join(t.TempDir(), "missing.bin"))
		assert.Error(t, err)
	})
}

func TestWriteMetadataFile(t *testing.T) {
	t.Run("round trips backup metadata", func(t *testing.T) {
		tempDir := t.TempDir()
		path := filepath.Join(tempDir, metadataFilename)

		metadata := BackupMetadata{
			Timestamp:     time.Date(2026, 8, 23, 1, 30, 0, 0, time.UTC),
			FormatVersion: "1.0.0",
			AppVersion:    "0.3.0",
			Databases: []DatabaseMetadata{
				{Name: "runs", Filename: "runs.db", SizeBytes: 4096, Checksum: "sha256:abc"},
				{Name: "cache", Filename: "cache.db", SizeBytes: 8192, Checksum: "sha256:def"},
			},
		}

		require.NoError(t, writeMetadataFile(path, metadata))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)

		var decoded BackupMetadata
		require.NoError(t, json.Unmarshal(raw, &decoded))

		assert.Equal(t, metadata.Timestamp, decoded.Timestamp)
		assert.Equal(t, metadata.FormatVersion, decoded.FormatVersion)
		assert.Equal(t, metadata.Databases, decoded.Databases)
	})
}

func TestCreateArchive_RoundTrip(t *testing.T) {
	t.Run("archived files survive extraction intact", func(t *testing.T) {
		sourceDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "runs.db"), []byte("runs payload"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "cache.db"), []byte("cache payload"), 0644))

		archivePath := filepath.Join(t.TempDir(), "backup.tar.gz")
		require.NoError(t, createArchive(archivePath, sourceDir, []string{"runs.db", "cache.db"}))

		destDir := t.TempDir()
		require.NoError(t, extractArchive(archivePath, destDir))

		runs, err := os.ReadFile(filepath.Join(destDir, "runs.db"))
		require.NoError(t, err)
		assert.Equal(t, []byte("runs payload"), runs)

		cache, err := os.ReadFile(filepath.Join(destDir, "cache.db"))
		require.NoError(t, err)
		assert.Equal(t, []byte("cache payload"), cache)
	})

	t.Run("errors on missing source file", func(t *testing.T) {
		archivePath := filepath.Join(t.TempDir(), "backup.tar.gz")
		err := createArchive(archivePath, t.TempDir(), []string{"missing.db"})
		assert.Error(t, err)
	})
}

func TestNewR2Client_RequiresCredentials(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})

	_, err := NewR2Client("", "key", "secret", "bucket", log)
	assert.Error(t, err)

	_, err = NewR2Client("https://example.r2.cloudflarestorage.com", "", "secret", "bucket", log)
	assert.Error(t, err)

	_, err = NewR2Client("https://example.r2.cloudflarestorage.com", "key", "", "bucket", log)
	assert.Error(t, err)

	_, err = NewR2Client("https://example.r2.cloudflarestorage.com", "key", "secret", "", log)
	assert.Error(t, err)
}
