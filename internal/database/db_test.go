package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConnectionString(t *testing.T) {
	tests := []struct {
		name     string
		profile  DatabaseProfile
		contains []string
	}{
		{"ledger", ProfileLedger, []string{"synchronous(FULL)", "auto_vacuum(NONE)"}},
		{"cache", ProfileCache, []string{"synchronous(OFF)", "temp_store(MEMORY)"}},
		{"standard", ProfileStandard, []string{"synchronous(NORMAL)", "auto_vacuum(INCREMENTAL)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connStr := buildConnectionString("/tmp/x.db", tt.profile)
			assert.Contains(t, connStr, "/tmp/x.db?_pragma=journal_mode(WAL)")
			assert.Contains(t, connStr, "foreign_keys(1)")
			for _, fragment := range tt.contains {
				assert.Contains(t, connStr, fragment)
			}
		})
	}
}

func TestBuildConnectionString_ExistingQuery(t *testing.T) {
	connStr := buildConnectionString("file:test?mode=memory", ProfileCache)
	assert.Contains(t, connStr, "file:test?mode=memory&_pragma=journal_mode(WAL)")
}

func TestSchema(t *testing.T) {
	for _, name := range []string{NameCatalog, NameHistory, NameCache} {
		content, err := Schema(name)
		require.NoError(t, err)
		assert.Contains(t, content, "CREATE TABLE", name)
	}

	content, err := Schema("unknown")
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestNewAndMigrate(t *testing.T) {
	dir := t.TempDir()

	db, err := New(Config{Path: filepath.Join(dir, "catalog.db"), Profile: ProfileStandard, Name: NameCatalog})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	// Second run is a no-op
	require.NoError(t, db.Migrate())

	var count int
	err = db.Conn().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, db.QuickCheck(context.Background()))
	require.NoError(t, db.HealthCheck(context.Background()))

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, NameCatalog, stats.Name)
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	dir := t.TempDir()

	db, err := New(Config{Path: filepath.Join(dir, "history.db"), Profile: ProfileLedger, Name: NameHistory})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`INSERT INTO style_profiles (user_id, updated_at) VALUES ('u1', 1)`)
		require.NoError(t, execErr)
		return assert.AnError
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM style_profiles").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}
