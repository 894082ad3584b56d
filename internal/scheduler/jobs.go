package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
)

// HistoryRetention is how long generation logs are kept
const HistoryRetention = 180 * 24 * time.Hour

const jobTimeout = 2 * time.Minute

// CachePurger drops expired in-process cache entries
type CachePurger interface {
	PurgeExpired() int
}

// CachePurgeJob purges the in-process outfit cache tier
type CachePurgeJob struct {
	cache CachePurger
	log   zerolog.Logger
}

// NewCachePurgeJob creates a cache purge job
func NewCachePurgeJob(cache CachePurger, log zerolog.Logger) *CachePurgeJob {
	return &CachePurgeJob{cache: cache, log: log.With().Str("job", "outfit_cache_purge").Logger()}
}

// Name returns the job name
func (j *CachePurgeJob) Name() string { return "outfit_cache_purge" }

// Run executes the purge
func (j *CachePurgeJob) Run() error {
	if removed := j.cache.PurgeExpired(); removed > 0 {
		j.log.Debug().Int("removed", removed).Msg("Purged expired outfit cache entries")
	}
	return nil
}

// GenerationPruner deletes old generation logs
type GenerationPruner interface {
	DeleteGenerationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryRetentionJob removes generation logs past the retention window
type HistoryRetentionJob struct {
	repo      GenerationPruner
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewHistoryRetentionJob creates a history retention job
func NewHistoryRetentionJob(repo GenerationPruner, log zerolog.Logger) *HistoryRetentionJob {
	return &HistoryRetentionJob{
		repo:      repo,
		retention: HistoryRetention,
		now:       time.Now,
		log:       log.With().Str("job", "history_retention").Logger(),
	}
}

// Name returns the job name
func (j *HistoryRetentionJob) Name() string { return "history_retention" }

// Run executes the retention sweep
func (j *HistoryRetentionJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	deleted, err := j.repo.DeleteGenerationsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("history retention failed: %w", err)
	}

	j.log.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Old generation logs removed")
	return nil
}

// TrendSource computes and caches trend snapshots
type TrendSource interface {
	Invalidate()
	Snapshot(ctx context.Context, style string) domain.TrendSnapshot
}

// TrendPrewarmJob recomputes trend snapshots for the featured styles
type TrendPrewarmJob struct {
	trends TrendSource
	styles func() []string
	log    zerolog.Logger
}

// NewTrendPrewarmJob creates a trend prewarm job
func NewTrendPrewarmJob(trends TrendSource, styles func() []string, log zerolog.Logger) *TrendPrewarmJob {
	return &TrendPrewarmJob{trends: trends, styles: styles, log: log.With().Str("job", "trend_prewarm").Logger()}
}

// Name returns the job name
func (j *TrendPrewarmJob) Name() string { return "trend_prewarm" }

// Run executes the prewarm
func (j *TrendPrewarmJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	j.trends.Invalidate()
	styles := j.styles()
	for _, style := range styles {
		j.trends.Snapshot(ctx, style)
	}
	j.log.Debug().Int("styles", len(styles)).Msg("Trend snapshots prewarmed")
	return nil
}

// LimitSweeper drops expired rate limit windows
type LimitSweeper interface {
	SweepLimits() int
}

// RateLimitSweepJob releases idle rate limit keys
type RateLimitSweepJob struct {
	limits LimitSweeper
	log    zerolog.Logger
}

// NewRateLimitSweepJob creates a rate limit sweep job
func NewRateLimitSweepJob(limits LimitSweeper, log zerolog.Logger) *RateLimitSweepJob {
	return &RateLimitSweepJob{limits: limits, log: log.With().Str("job", "rate_limit_sweep").Logger()}
}

// Name returns the job name
func (j *RateLimitSweepJob) Name() string { return "rate_limit_sweep" }

// Run executes the sweep
func (j *RateLimitSweepJob) Run() error {
	j.log.Debug().Int("active_keys", j.limits.SweepLimits()).Msg("Rate limits swept")
	return nil
}

// WALCheckpointJob truncates the write-ahead logs of the databases
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a WAL checkpoint job
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{databases: databases, log: log.With().Str("job", "wal_checkpoint").Logger()}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

// Run executes the checkpoint on every database, reporting the first failure
func (j *WALCheckpointJob) Run() error {
	var firstErr error
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
