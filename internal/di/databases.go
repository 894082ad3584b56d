// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/outfitter/internal/config"
	"github.com/aristath/outfitter/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the three databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	specs := []struct {
		target  **database.DB
		file    string
		profile database.DatabaseProfile
		name    string
	}{
		// catalog.db - Branded items and brands, seeded on first start
		{&container.CatalogDB, "catalog.db", database.ProfileStandard, database.NameCatalog},
		// history.db - Generation log and user feedback
		{&container.HistoryDB, "history.db", database.ProfileLedger, database.NameHistory},
		// cache.db - Weather and image search responses
		{&container.CacheDB, "cache.db", database.ProfileCache, database.NameCache},
	}

	for _, spec := range specs {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, spec.file),
			Profile: spec.profile,
			Name:    spec.name,
		})
		if err != nil {
			closeDatabases(container)
			return nil, fmt.Errorf("failed to initialize %s database: %w", spec.name, err)
		}
		*spec.target = db
	}

	// Apply schemas to all databases (single source of truth)
	for _, db := range container.Databases() {
		if err := db.Migrate(); err != nil {
			closeDatabases(container)
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().Int("count", len(container.Databases())).Msg("Databases initialized")
	return container, nil
}

func closeDatabases(container *Container) {
	for _, db := range container.Databases() {
		_ = db.Close()
	}
}
