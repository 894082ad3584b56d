package di

import (
	"context"
	"fmt"

	"github.com/aristath/outfitter/internal/clients/openverse"
	"github.com/aristath/outfitter/internal/clients/openweather"
	"github.com/aristath/outfitter/internal/clients/redis"
	"github.com/aristath/outfitter/internal/config"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/catalog"
	"github.com/aristath/outfitter/internal/modules/composer"
	"github.com/aristath/outfitter/internal/modules/formatter"
	"github.com/aristath/outfitter/internal/modules/media"
	"github.com/aristath/outfitter/internal/modules/outfitcache"
	"github.com/aristath/outfitter/internal/modules/outfits"
	outfithandlers "github.com/aristath/outfitter/internal/modules/outfits/handlers"
	"github.com/aristath/outfitter/internal/modules/personalization"
	"github.com/aristath/outfitter/internal/modules/pipeline"
	"github.com/aristath/outfitter/internal/modules/styles"
	"github.com/aristath/outfitter/internal/modules/trends"
	"github.com/aristath/outfitter/internal/modules/validation"
	"github.com/aristath/outfitter/internal/modules/weather"
	"github.com/aristath/outfitter/internal/queue"
	"github.com/aristath/outfitter/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services, bottom-up
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if cfg.CatalogSeed {
		seeded, err := catalog.NewSeeder(container.CatalogRepo, log).SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if seeded > 0 {
			log.Info().Int("items", seeded).Msg("Catalog seeded")
		}
	}

	// Redis is optional; every consumer degrades to in-process behavior without it
	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without it")
		} else {
			container.Redis = client
		}
	}

	container.Weather = openweather.NewClient(cfg.OpenWeatherAPIKey, container.ClientDataRepo, log)
	container.ImageSearch = openverse.NewClient(container.ClientDataRepo, log)

	container.StyleResolver = styles.NewResolver(log)
	container.WeatherService = weather.NewService(container.Weather, log)
	container.TrendService = trends.NewService(container.HistoryRepo, log)
	container.Selector = catalog.NewSelector(container.CatalogRepo, log)
	container.Composer = composer.NewComposer(log)
	container.Validator = validation.NewGate(log)

	var presigner media.Presigner
	if cfg.Media.S3.Enabled() {
		client, err := media.NewS3Client(ctx, cfg.Media.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize media storage: %w", err)
		}
		container.S3 = client
		presigner = media.NewS3Presigner(client, cfg.Media.S3.Bucket, log)
	}
	container.MediaBuilder = media.NewBuilder(cfg.PublicBaseURL, presigner, cfg.Media.SignedURLTTL, log)

	cards := formatter.NewProductCardResolver(container.ImageSearch, log)
	container.Formatter = formatter.NewFormatter(cards, container.MediaBuilder, cfg.PublicBaseURL, log)

	deps := pipeline.Deps{
		Styles:    container.StyleResolver,
		Weather:   container.WeatherService,
		Trends:    container.TrendService,
		Selector:  container.Selector,
		Composer:  container.Composer,
		Validator: container.Validator,
		Formatter: container.Formatter,
	}
	if cfg.Cache.Enabled {
		var external outfitcache.External
		if container.Redis != nil {
			external = outfitcache.NewRedisStore(container.Redis)
		}
		container.OutfitCache = outfitcache.New(external, log)
		deps.Cache = container.OutfitCache
	}
	container.Pipeline = pipeline.NewService(deps, log)

	if err := initializeQueue(container, cfg, log); err != nil {
		return err
	}

	container.Personalization = personalization.NewService(container.HistoryRepo, log)
	container.OutfitService = outfits.NewService(container.Queue, container.HistoryRepo, container.Personalization, log)
	container.OutfitHandler = outfithandlers.NewHandler(container.OutfitService, cfg.CORSOrigins, log)

	if cfg.Backup.Enabled {
		var store reliability.ObjectStore
		if container.S3 != nil {
			store = reliability.NewS3Store(container.S3, cfg.Media.S3.Bucket, log)
		}
		container.Backups = reliability.NewBackupService(container.Databases(), cfg.DataDir, cfg.Backup.Keep, store, log)
	}

	log.Info().
		Bool("redis", container.Redis != nil).
		Bool("cache", container.OutfitCache != nil).
		Bool("queue", container.Queue.Enabled()).
		Msg("Services initialized")
	return nil
}

// initializeQueue puts the asynq queue in front of the pipeline when it is
// enabled and redis is reachable, and starts the in-process worker for it.
func initializeQueue(container *Container, cfg *config.Config, log zerolog.Logger) error {
	var direct domain.OutfitGenerator = container.Pipeline

	if !cfg.QueueActive() || container.Redis == nil {
		container.Queue = queue.Disabled(direct, log)
		return nil
	}

	redisOpt, err := queue.RedisOpt(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid queue redis url: %w", err)
	}

	container.Queue = queue.Open(direct, redisOpt, cfg.Queue.Timeout, log)

	worker := queue.NewWorker(direct, log)
	if err := worker.Start(redisOpt, cfg.Queue.Concurrency); err != nil {
		_ = container.Queue.Close()
		return fmt.Errorf("failed to start outfit worker: %w", err)
	}
	container.Worker = worker
	return nil
}
