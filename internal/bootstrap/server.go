package bootstrap

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pocketish/internal/api"
	"github.com/jonesrussell/pocketish/internal/config"
	"github.com/jonesrussell/pocketish/internal/database"
	"github.com/jonesrussell/pocketish/internal/logger"
)

// SetupHTTPServer creates the HTTP server with all handlers wired.
func SetupHTTPServer(cfg *config.Config, db *sqlx.DB, log logger.Logger) *api.Server {
	linkRepo := database.NewLinkRepository(db)
	tagRepo := database.NewTagRepository(db)
	userRepo := database.NewUserRepository(db)

	linkHandler := api.NewLinkHandler(linkRepo, tagRepo)
	tagHandler := api.NewTagHandler(linkRepo, tagRepo)

	return api.NewServer(cfg.Service.Port, cfg.Service.Debug, log, func(router *gin.Engine) {
		api.SetupRoutes(router, userRepo, linkHandler, tagHandler, linkRepo,
			cfg.Service.Name, cfg.Service.Version)
	})
}
