package di

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:       t.TempDir(),
		Port:          4000,
		PublicBaseURL: "http://localhost:4000",
		CORSOrigins:   []string{"*"},
		CatalogSeed:   true,
		Cache:         config.CacheConfig{Enabled: true},
		Queue:         config.QueueConfig{Concurrency: 2, Timeout: 5 * time.Second},
		Backup:        config.BackupConfig{Enabled: true, Keep: 2},
	}
}

func TestWire(t *testing.T) {
	container, jobs, err := Wire(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.Pipeline)
	assert.NotNil(t, container.OutfitService)
	assert.NotNil(t, container.OutfitHandler)
	assert.NotNil(t, container.OutfitCache)
	assert.Nil(t, container.Redis)
	assert.Nil(t, container.Worker)
	assert.False(t, container.Queue.Enabled())

	count, err := container.CatalogRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 0, "catalog is seeded on first start")

	require.NotNil(t, jobs)
	assert.NotNil(t, jobs.CachePurge)
	assert.NotNil(t, jobs.Backup)
	assert.NotNil(t, container.Backups)
	assert.Nil(t, container.S3)
	assert.Equal(t, 8, container.Scheduler.Entries())
}

func TestWire_CacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	cfg.CatalogSeed = false
	cfg.Backup.Enabled = false

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.Nil(t, container.OutfitCache)
	assert.Nil(t, jobs.CachePurge)
	assert.Nil(t, jobs.Backup)
	assert.Equal(t, 6, container.Scheduler.Entries())

	count, err := container.CatalogRepo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWire_QueueWithoutRedisRunsDirect(t *testing.T) {
	cfg := testConfig(t)
	cfg.Queue.Enabled = true

	container, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.False(t, container.Queue.Enabled())
	assert.Nil(t, container.Worker)
}

func TestRegisterJobs_NilContainer(t *testing.T) {
	_, err := RegisterJobs(nil, zerolog.Nop())
	assert.Error(t, err)
}
