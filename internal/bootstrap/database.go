package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pocketish/internal/config"
	"github.com/jonesrussell/pocketish/internal/database"
)

// SetupDatabase creates a database connection from config.
func SetupDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, connErr := database.NewPostgresConnection(cfg.Database)
	if connErr != nil {
		return nil, fmt.Errorf("database connection: %w", connErr)
	}

	return db, nil
}
