package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-pgx-server/internal/api"
	"github.com/pharmaguard-pgx-server/internal/cache"
	"github.com/pharmaguard-pgx-server/internal/config"
	"github.com/pharmaguard-pgx-server/internal/database"
	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/profile"
	"github.com/pharmaguard-pgx-server/internal/repository"
	"github.com/pharmaguard-pgx-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	reportCache, err := cache.Connect(ctx, cfg.Cache, logger)
	if err != nil {
		log.Fatalf("Failed to connect report cache: %v", err)
	}
	if closer, ok := reportCache.(io.Closer); ok {
		defer closer.Close()
	}

	opts := []service.Option{service.WithReportCache(reportCache)}

	profiles, closeDB, repoOpt, err := openStorage(ctx, cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeDB()
	defer profiles.Close()
	if repoOpt != nil {
		opts = append(opts, repoOpt)
	}

	analysis, err := service.NewFromEngineConfig(cfg.Engine, logger, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"host":   cfg.Server.Host,
		"port":   cfg.Server.Port,
		"driver": cfg.Database.Driver,
	}).Info("Starting PharmaGuard API server")

	server := api.NewServer(configManager, analysis, profiles, logger)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}

	logger.Info("Server stopped")
}

// openStorage opens the profile store for the configured driver. PostgreSQL
// deployments also migrate the schema and persist generated reports.
func openStorage(ctx context.Context, db domain.DatabaseConfig, logger *logrus.Logger) (profile.Store, func(), service.Option, error) {
	noop := func() {}

	if db.Driver != "postgres" {
		store, err := profile.NewSQLiteStore(db.SQLitePath)
		if err != nil {
			return nil, noop, nil, err
		}
		logger.WithField("path", store.Path()).Info("Using SQLite profile store")
		return store, noop, nil, nil
	}

	if err := database.Migrate(ctx, config.MigrationURL(db), db.MigrationsPath, logger); err != nil {
		return nil, noop, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := profile.NewPostgresStoreFromConfig(config.ConnectionString(db), db)
	if err != nil {
		return nil, noop, nil, err
	}

	conn, err := database.NewConnection(ctx, db, logger)
	if err != nil {
		store.Close()
		return nil, noop, nil, err
	}

	repo := repository.NewReportRepository(conn.Pool, logger)
	return store, conn.Close, service.WithReportRepository(repo), nil
}
