package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/rs/zerolog"
)

const backupTimeout = 5 * time.Minute

// BackupJob creates a database backup on schedule
type BackupJob struct {
	service *BackupService
	log     zerolog.Logger
}

// NewBackupJob creates a backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{service: service, log: log.With().Str("job", "database_backup").Logger()}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "database_backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if _, err := j.service.CreateBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	return nil
}

// VacuumJob reclaims space in databases with high churn (history, cache)
type VacuumJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewVacuumJob creates a vacuum job
func NewVacuumJob(log zerolog.Logger, databases ...*database.DB) *VacuumJob {
	return &VacuumJob{databases: databases, log: log.With().Str("job", "database_vacuum").Logger()}
}

// Name returns the job name for scheduler
func (j *VacuumJob) Name() string {
	return "database_vacuum"
}

// Run vacuums every database; a failure on one does not stop the others
func (j *VacuumJob) Run() error {
	startTime := time.Now()
	var failed int

	for _, db := range j.databases {
		if err := j.vacuumDatabase(db); err != nil {
			failed++
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
		}
	}

	j.log.Info().
		Int("databases", len(j.databases)).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Msg("Database vacuum completed")

	if failed > 0 {
		return fmt.Errorf("vacuum failed for %d of %d databases", failed, len(j.databases))
	}
	return nil
}

func (j *VacuumJob) vacuumDatabase(db *database.DB) error {
	before, err := db.GetStats()
	if err != nil {
		return err
	}

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	after, err := db.GetStats()
	if err != nil {
		return err
	}

	j.log.Debug().
		Str("database", db.Name()).
		Int64("pages_before", before.PageCount).
		Int64("pages_after", after.PageCount).
		Msg("VACUUM completed")
	return nil
}
