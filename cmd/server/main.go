// Package main is the entry point for the Outfitter service, which composes
// branded outfits from a curated catalog and scores them.
//
// Startup sequence:
// 1. Load configuration from environment variables (.env supported)
// 2. Initialize logging
// 3. Wire dependencies (databases, repositories, services, queue, jobs)
// 4. Start the scheduler and the HTTP server
// 5. Wait for SIGINT/SIGTERM and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/outfitter/internal/clients/redis"
	"github.com/aristath/outfitter/internal/config"
	"github.com/aristath/outfitter/internal/di"
	cataloghandlers "github.com/aristath/outfitter/internal/modules/catalog/handlers"
	mediahandlers "github.com/aristath/outfitter/internal/modules/media/handlers"
	styleshandlers "github.com/aristath/outfitter/internal/modules/styles/handlers"
	"github.com/aristath/outfitter/internal/server"
	"github.com/aristath/outfitter/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Outfitter")

	ctx := context.Background()
	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	serverCfg := server.Config{
		Log:         log,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		CORSOrigins: cfg.CORSOrigins,
		DataDir:     cfg.DataDir,
		Databases:   container.Databases(),
		Queue:       container.Queue,
		Modules: []server.RouteRegistrar{
			container.OutfitHandler,
			cataloghandlers.NewHandler(container.CatalogRepo, log),
			styleshandlers.NewHandler(container.StyleResolver, log),
			mediahandlers.NewHandler(log),
		},
	}
	// Interface fields stay nil unless the component exists
	if container.Redis != nil {
		serverCfg.Redis = redis.NewPinger(container.Redis)
	}
	if container.OutfitCache != nil {
		serverCfg.Cache = container.OutfitCache
	}
	srv := server.New(serverCfg)

	container.Scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Bool("queue", container.Queue.Enabled()).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
