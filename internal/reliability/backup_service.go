// Package reliability keeps local and off-site database backups and runs
// periodic database maintenance.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/rs/zerolog"
)

const (
	// BackupKeyPrefix is the object key prefix for uploaded archives
	BackupKeyPrefix = "backups/"
	// DefaultKeep is how many local archives survive rotation
	DefaultKeep = 7

	archivePrefix   = "outfitter-backup-"
	archiveSuffix   = ".tar.gz"
	metadataFile    = "backup-metadata.json"
	timestampLayout = "2006-01-02-150405"
)

// ObjectStore receives backup archives for off-site storage
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader) error
}

// BackupMetadata describes the contents of one archive
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes one database snapshot in an archive
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo is a local archive on disk
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// BackupService snapshots databases into tar.gz archives
type BackupService struct {
	databases []*database.DB
	backupDir string
	keep      int
	store     ObjectStore
	now       func() time.Time
	log       zerolog.Logger
}

// NewBackupService creates a backup service writing to dataDir/backups.
// store may be nil, in which case archives stay local.
func NewBackupService(databases []*database.DB, dataDir string, keep int, store ObjectStore, log zerolog.Logger) *BackupService {
	if keep < 1 {
		keep = DefaultKeep
	}
	return &BackupService{
		databases: databases,
		backupDir: filepath.Join(dataDir, "backups"),
		keep:      keep,
		store:     store,
		now:       time.Now,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateBackup snapshots every database, archives the snapshots with a
// metadata file, uploads the archive when a store is configured, and rotates
// old local archives. It returns the archive path.
func (s *BackupService) CreateBackup(ctx context.Context) (string, error) {
	startTime := s.now()

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	stagingDir, err := os.MkdirTemp(s.backupDir, "staging-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	metadata := BackupMetadata{
		Timestamp: startTime.UTC(),
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}
	files := make([]string, 0, len(s.databases)+1)

	for _, db := range s.databases {
		filename := db.Name() + ".db"
		dest := filepath.Join(stagingDir, filename)

		if err := snapshot(ctx, db, dest); err != nil {
			return "", err
		}

		info, err := os.Stat(dest)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s snapshot: %w", db.Name(), err)
		}
		checksum, err := calculateChecksum(dest)
		if err != nil {
			return "", fmt.Errorf("failed to calculate checksum for %s: %w", db.Name(), err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      db.Name(),
			Filename:  filename,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
		files = append(files, filename)
	}

	if err := writeMetadata(filepath.Join(stagingDir, metadataFile), metadata); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}
	files = append(files, metadataFile)

	archiveName := archivePrefix + startTime.Format(timestampLayout) + archiveSuffix
	archivePath := filepath.Join(s.backupDir, archiveName)
	if err := createArchive(archivePath, stagingDir, files); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	if s.store != nil {
		if err := s.upload(ctx, archivePath, archiveName); err != nil {
			return archivePath, err
		}
	}

	if err := s.rotate(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to rotate old backups")
	}

	s.log.Info().
		Str("archive", archiveName).
		Int("databases", len(metadata.Databases)).
		Bool("uploaded", s.store != nil).
		Dur("duration", s.now().Sub(startTime)).
		Msg("Backup completed")

	return archivePath, nil
}

// ListBackups returns local archives, newest first
func (s *BackupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, archivePrefix), archiveSuffix)
		ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{Filename: name, Timestamp: ts, SizeBytes: info.Size()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (s *BackupService) upload(ctx context.Context, archivePath, archiveName string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive for upload: %w", err)
	}
	defer file.Close()

	if err := s.store.Put(ctx, BackupKeyPrefix+archiveName, file); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}
	return nil
}

func (s *BackupService) rotate() error {
	backups, err := s.ListBackups()
	if err != nil {
		return err
	}
	for _, b := range backups[minInt(s.keep, len(backups)):] {
		if err := os.Remove(filepath.Join(s.backupDir, b.Filename)); err != nil {
			return fmt.Errorf("failed to remove %s: %w", b.Filename, err)
		}
		s.log.Debug().Str("archive", b.Filename).Msg("Removed old backup")
	}
	return nil
}

// snapshot writes a consistent copy of a live database
func snapshot(ctx context.Context, db *database.DB, dest string) error {
	quoted := strings.ReplaceAll(dest, "'", "''")
	if _, err := db.Conn().ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", db.Name(), err)
	}
	return nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive creates a tar.gz archive of the named files in sourceDir
func createArchive(archivePath, sourceDir string, filenames []string) (err error) {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if closeErr := archiveFile.Close(); err == nil {
			err = closeErr
		}
	}()

	gzipWriter := gzip.NewWriter(archiveFile)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, filename := range filenames {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, filename), filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
