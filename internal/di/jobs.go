// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/outfitter/internal/clientdata"
	"github.com/aristath/outfitter/internal/reliability"
	"github.com/aristath/outfitter/internal/scheduler"
	"github.com/rs/zerolog"
)

// Job schedules (cron with seconds)
const (
	ScheduleClientDataCleanup = "0 0 * * * *"    // hourly
	ScheduleCachePurge        = "0 * * * * *"    // every minute
	ScheduleHistoryRetention  = "0 30 3 * * *"   // daily at 03:30
	ScheduleTrendPrewarm      = "0 */10 * * * *" // every 10 minutes
	ScheduleRateLimitSweep    = "0 */5 * * * *"  // every 5 minutes
	ScheduleWALCheckpoint     = "0 0 */6 * * *"  // every 6 hours
	ScheduleBackup            = "0 0 4 * * *"    // daily at 04:00
	ScheduleVacuum            = "0 0 3 * * 0"    // Sundays at 03:00
)

// JobInstances holds references to registered jobs for manual triggering
type JobInstances struct {
	ClientDataCleanup scheduler.Job
	CachePurge        scheduler.Job // nil when the outfit cache is disabled
	HistoryRetention  scheduler.Job
	TrendPrewarm      scheduler.Job
	RateLimitSweep    scheduler.Job
	WALCheckpoint     scheduler.Job
	Backup            scheduler.Job // nil when backups are disabled
	Vacuum            scheduler.Job
}

// RegisterJobs creates the scheduler and registers all maintenance jobs
func RegisterJobs(container *Container, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)
	instances := &JobInstances{
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		HistoryRetention:  scheduler.NewHistoryRetentionJob(container.HistoryRepo, log),
		TrendPrewarm:      scheduler.NewTrendPrewarmJob(container.TrendService, container.StyleResolver.Featured, log),
		RateLimitSweep:    scheduler.NewRateLimitSweepJob(container.OutfitHandler, log),
		WALCheckpoint:     scheduler.NewWALCheckpointJob(log, container.Databases()...),
		Vacuum:            reliability.NewVacuumJob(log, container.HistoryDB, container.CacheDB),
	}
	if container.OutfitCache != nil {
		instances.CachePurge = scheduler.NewCachePurgeJob(container.OutfitCache, log)
	}
	if container.Backups != nil {
		instances.Backup = reliability.NewBackupJob(container.Backups, log)
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{ScheduleClientDataCleanup, instances.ClientDataCleanup},
		{ScheduleCachePurge, instances.CachePurge},
		{ScheduleHistoryRetention, instances.HistoryRetention},
		{ScheduleTrendPrewarm, instances.TrendPrewarm},
		{ScheduleRateLimitSweep, instances.RateLimitSweep},
		{ScheduleWALCheckpoint, instances.WALCheckpoint},
		{ScheduleBackup, instances.Backup},
		{ScheduleVacuum, instances.Vacuum},
	}

	for _, reg := range registrations {
		if reg.job == nil {
			continue
		}
		if err := sched.AddJob(reg.schedule, reg.job); err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", reg.job.Name(), err)
		}
	}

	container.Scheduler = sched
	log.Info().Int("jobs", sched.Entries()).Msg("Jobs registered")
	return instances, nil
}
