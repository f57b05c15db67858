package bootstrap

import (
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pocketish/internal/config"
	"github.com/jonesrussell/pocketish/internal/database"
	"github.com/jonesrussell/pocketish/internal/enrich"
	"github.com/jonesrussell/pocketish/internal/extract"
	"github.com/jonesrussell/pocketish/internal/fetch"
	"github.com/jonesrussell/pocketish/internal/logger"
	"github.com/jonesrussell/pocketish/internal/worker"
)

// SetupWorker wires the processing loop. With no enrichment API key
// configured the engine runs in fallback-only mode.
func SetupWorker(cfg *config.Config, db *sqlx.DB, log logger.Logger) *worker.Worker {
	linkRepo := database.NewLinkRepository(db)
	tagRepo := database.NewTagRepository(db)

	fetcher := fetch.NewFetcher(cfg.Fetch, log)

	client := enrich.NewClient(cfg.Enrichment, log)
	if client == nil {
		log.Info("no enrichment API key configured, running fallback-only")
	}
	engine := enrich.NewEngine(client, log)

	return worker.New(linkRepo, tagRepo, fetcher, extract.Extract, engine, log, worker.Config{
		PollInterval: cfg.Worker.PollInterval,
		StaleAfter:   cfg.Worker.StaleAfter,
	})
}
