package di

import (
	"github.com/aristath/outfitter/internal/clientdata"
	"github.com/aristath/outfitter/internal/modules/catalog"
	"github.com/aristath/outfitter/internal/modules/outfits"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the data access layer over open databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.CatalogRepo = catalog.NewRepository(container.CatalogDB.Conn(), log)
	container.HistoryRepo = outfits.NewRepository(container.HistoryDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	log.Info().Msg("Repositories initialized")
}
