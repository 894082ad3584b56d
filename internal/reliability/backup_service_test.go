package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	keys []string
	data [][]byte
	err  error
}

func (f *fakeStore) Put(ctx context.Context, key string, body io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	f.data = append(f.data, raw)
	return nil
}

func openDatabases(t *testing.T, dir string) []*database.DB {
	t.Helper()
	var dbs []*database.DB
	for _, name := range []string{database.NameHistory, database.NameCache} {
		db, err := database.New(database.Config{
			Path:    filepath.Join(dir, name+".db"),
			Profile: database.ProfileStandard,
			Name:    name,
		})
		require.NoError(t, err)
		require.NoError(t, db.Migrate())
		t.Cleanup(func() { db.Close() })
		dbs = append(dbs, db)
	}
	return dbs
}

func readArchive(t *testing.T, raw []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}

func TestCreateBackup(t *testing.T) {
	dir := t.TempDir()
	dbs := openDatabases(t, dir)
	_, err := dbs[0].Conn().Exec(`INSERT INTO style_profiles (user_id, updated_at) VALUES ('u1', 1)`)
	require.NoError(t, err)

	store := &fakeStore{}
	service := NewBackupService(dbs, dir, 3, store, zerolog.Nop())
	service.now = func() time.Time { return time.Date(2026, 3, 1, 4, 0, 0, 0, time.Local) }

	path, err := service.CreateBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backups", "outfitter-backup-2026-03-01-040000.tar.gz"), path)

	require.Len(t, store.keys, 1)
	assert.Equal(t, "backups/outfitter-backup-2026-03-01-040000.tar.gz", store.keys[0])

	files := readArchive(t, store.data[0])
	assert.Contains(t, files, "history.db")
	assert.Contains(t, files, "cache.db")
	require.Contains(t, files, "backup-metadata.json")

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &metadata))
	require.Len(t, metadata.Databases, 2)
	assert.Equal(t, "history", metadata.Databases[0].Name)
	assert.Contains(t, metadata.Databases[0].Checksum, "sha256:")
	assert.Equal(t, int64(len(files["history.db"])), metadata.Databases[0].SizeBytes)

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging directory is removed")
}

func TestCreateBackup_SnapshotIsReadable(t *testing.T) {
	dir := t.TempDir()
	dbs := openDatabases(t, dir)
	_, err := dbs[0].Conn().Exec(`INSERT INTO style_profiles (user_id, updated_at) VALUES ('u1', 1)`)
	require.NoError(t, err)

	store := &fakeStore{}
	service := NewBackupService(dbs[:1], dir, 3, store, zerolog.Nop())
	_, err = service.CreateBackup(context.Background())
	require.NoError(t, err)

	restored := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, os.WriteFile(restored, readArchive(t, store.data[0])["history.db"], 0644))

	db, err := database.New(database.Config{Path: restored, Name: database.NameHistory})
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM style_profiles").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCreateBackup_RotatesLocalArchives(t *testing.T) {
	dir := t.TempDir()
	dbs := openDatabases(t, dir)

	service := NewBackupService(dbs, dir, 2, nil, zerolog.Nop())
	start := time.Date(2026, 3, 1, 4, 0, 0, 0, time.Local)
	for i := 0; i < 4; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		service.now = func() time.Time { return at }
		_, err := service.CreateBackup(context.Background())
		require.NoError(t, err)
	}

	backups, err := service.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "outfitter-backup-2026-03-01-070000.tar.gz", backups[0].Filename)
	assert.Equal(t, "outfitter-backup-2026-03-01-060000.tar.gz", backups[1].Filename)
	assert.True(t, sort.SliceIsSorted(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	}))
}

func TestCreateBackup_UploadFailureKeepsArchive(t *testing.T) {
	dir := t.TempDir()
	dbs := openDatabases(t, dir)

	service := NewBackupService(dbs, dir, 3, &fakeStore{err: assert.AnError}, zerolog.Nop())
	path, err := service.CreateBackup(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.FileExists(t, path)
}

func TestListBackups_MissingDirectory(t *testing.T) {
	service := NewBackupService(nil, t.TempDir(), 3, nil, zerolog.Nop())
	backups, err := service.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestMaintenanceJobs(t *testing.T) {
	dir := t.TempDir()
	dbs := openDatabases(t, dir)

	vacuum := NewVacuumJob(zerolog.Nop(), dbs...)
	assert.Equal(t, "database_vacuum", vacuum.Name())
	assert.NoError(t, vacuum.Run())

	backup := NewBackupJob(NewBackupService(dbs, dir, 3, nil, zerolog.Nop()), zerolog.Nop())
	assert.Equal(t, "database_backup", backup.Name())
	require.NoError(t, backup.Run())

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
