/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and scheduler.
 */
package di

import (
	"github.com/aristath/outfitter/internal/clientdata"
	"github.com/aristath/outfitter/internal/clients/openverse"
	"github.com/aristath/outfitter/internal/clients/openweather"
	"github.com/aristath/outfitter/internal/database"
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
	"github.com/aristath/outfitter/internal/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	goredis "github.com/redis/go-redis/v9"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: catalog (items, brands), history (generations, feedback, profiles), cache (client responses)
 * - Clients: OpenWeatherMap, Openverse, optional redis
 * - Repositories: catalog items, generation history, client data cache
 * - Services: the generation pipeline and everything it composes
 * - Queue: optional asynq queue in front of the pipeline
 */
type Container struct {
	// Databases
	CatalogDB *database.DB // Branded items and brand metadata
	HistoryDB *database.DB // Generation log, feedback, saved outfits, style profiles
	CacheDB   *database.DB // External API response cache

	// Clients
	Redis       *goredis.Client // nil when REDIS_URL is unset or unreachable
	Weather     *openweather.Client
	ImageSearch *openverse.Client
	S3          *s3.Client // nil when MEDIA_S3_* is not configured

	// Repositories
	CatalogRepo    *catalog.Repository
	HistoryRepo    *outfits.Repository
	ClientDataRepo *clientdata.Repository

	// Services
	StyleResolver   *styles.Resolver
	WeatherService  *weather.Service
	TrendService    *trends.Service
	Selector        *catalog.Selector
	Composer        *composer.Composer
	Validator       *validation.Gate
	MediaBuilder    *media.Builder
	Formatter       *formatter.Formatter
	OutfitCache     *outfitcache.Cache // nil when AI_CACHE_ENABLED=false
	Pipeline        *pipeline.Service
	Queue           *queue.Queue
	Worker          *queue.Worker // nil when the queue is disabled
	Personalization *personalization.Service
	OutfitService   *outfits.Service
	Backups         *reliability.BackupService // nil when BACKUP_ENABLED=false

	// Handlers that own background state
	OutfitHandler *outfithandlers.Handler

	Scheduler *scheduler.Scheduler
}

// Databases returns every open database
func (c *Container) Databases() []*database.DB {
	var out []*database.DB
	for _, db := range []*database.DB{c.CatalogDB, c.HistoryDB, c.CacheDB} {
		if db != nil {
			out = append(out, db)
		}
	}
	return out
}
