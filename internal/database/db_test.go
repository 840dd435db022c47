package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile DatabaseProfile) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableNames(t *testing.T, db *DB) map[string]bool {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	require.NoError(t, err)
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names[name] = true
	}
	require.NoError(t, rows.Err())
	return names
}

// TestNew_CreatesAndPingsDatabase tests basic database creation
func TestNew_CreatesAndPingsDatabase(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)

	assert.Equal(t, "runs", db.Name())
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.NoError(t, db.QuickCheck(context.Background()))
}

// TestNew_DefaultsToStandardProfile tests empty profile falls back to standard
func TestNew_DefaultsToStandardProfile(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "plain.db"),
		Name: "plain",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
}

// TestMigrate_RunsSchema tests the runs schema creates its tables
func TestMigrate_RunsSchema(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())

	tables := tableNames(t, db)
	assert.True(t, tables["runs"], "runs table should exist")
	assert.True(t, tables["settings"], "settings table should exist")
}

// TestMigrate_CacheSchema tests the cache schema creates its tables
func TestMigrate_CacheSchema(t *testing.T) {
	db := newTestDB(t, "cache", ProfileCache)
	require.NoError(t, db.Migrate())

	tables := tableNames(t, db)
	assert.True(t, tables["cache"], "cache table should exist")
	assert.True(t, tables["plot_cache"], "plot_cache table should exist")
}

// TestMigrate_Idempotent tests that applying the schema twice is safe
func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

// TestMigrate_UnknownNameSkips tests unknown database names skip migration
func TestMigrate_UnknownNameSkips(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	require.NoError(t, db.Migrate())

	tables := tableNames(t, db)
	assert.False(t, tables["runs"])
}

// TestBuildConnectionString tests profile-specific PRAGMAs
func TestBuildConnectionString(t *testing.T) {
	standard := buildConnectionString("/tmp/x.db", ProfileStandard)
	assert.Contains(t, standard, "journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")
	assert.Contains(t, standard, "foreign_keys(1)")

	cache := buildConnectionString("/tmp/y.db", ProfileCache)
	assert.Contains(t, cache, "synchronous(OFF)")
	assert.Contains(t, cache, "auto_vacuum(FULL)")
}

// TestWithTransaction_Commit tests successful transactions commit
func TestWithTransaction_Commit(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO settings (key, value, updated_at) VALUES ('a', '1', 0)")
		return err
	})
	require.NoError(t, err)

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM settings WHERE key = 'a'").Scan(&value))
	assert.Equal(t, "1", value)
}

// TestWithTransaction_RollbackOnError tests failed transactions roll back
func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO settings (key, value, updated_at) VALUES ('b', '2', 0)"); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM settings WHERE key = 'b'").Scan(&count))
	assert.Equal(t, 0, count)
}

// TestWithTransaction_RecoversPanic tests panics roll back and become errors
func TestWithTransaction_RecoversPanic(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("unexpected")
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "panic in transaction"))
}

// TestWithTransaction_NilDB tests nil connections are rejected
func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	require.Error(t, err)
}

// TestHealthCheck tests the integrity check passes on a fresh database
func TestHealthCheck(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())
	assert.NoError(t, db.HealthCheck(context.Background()))
}

// TestWALCheckpoint tests WAL checkpointing succeeds
func TestWALCheckpoint(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())

	_, err := db.Exec("INSERT INTO settings (key, value, updated_at) VALUES ('c', '3', 0)")
	require.NoError(t, err)

	assert.NoError(t, db.WALCheckpoint(""))
	assert.NoError(t, db.WALCheckpoint("PASSIVE"))
}

// TestVacuum tests VACUUM succeeds
func TestVacuum(t *testing.T) {
	db := newTestDB(t, "cache", ProfileCache)
	require.NoError(t, db.Migrate())
	assert.NoError(t, db.Vacuum())
}

// TestGetStats tests statistics reporting
func TestGetStats(t *testing.T) {
	db := newTestDB(t, "runs", ProfileStandard)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.WALCheckpoint(""))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageCount, int64(0))
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.SizeBytes, int64(0))
}
