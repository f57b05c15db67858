// Package bootstrap handles application initialization and lifecycle
// management for the link service.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/pocketish/internal/logger"
)

// Start initializes and runs the service: HTTP API plus the single
// background worker. It blocks until a shutdown signal arrives.
func Start() error {
	cfg, configErr := LoadConfig()
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port))

	db, dbErr := SetupDatabase(cfg)
	if dbErr != nil {
		return fmt.Errorf("database: %w", dbErr)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", logger.Error(closeErr))
		}
	}()
	log.Info("database connection established")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := SetupWorker(cfg, db, log)
	if workerErr := w.Start(ctx); workerErr != nil {
		return fmt.Errorf("worker: %w", workerErr)
	}
	defer w.Stop()

	server := SetupHTTPServer(cfg, db, log)
	serverErrors := server.StartAsync()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case serverErr := <-serverErrors:
		if serverErr != nil {
			return fmt.Errorf("server: %w", serverErr)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))

		if shutdownErr := server.Shutdown(context.Background()); shutdownErr != nil {
			return fmt.Errorf("shutdown: %w", shutdownErr)
		}
	}

	log.Info("service stopped")
	return nil
}
