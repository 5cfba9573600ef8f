// Package main provides the MCP entry point. It needs no external services:
// profiles live in SQLite under the data directory and Redis is optional.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pharmaguard-pgx-server/internal/cache"
	"github.com/pharmaguard-pgx-server/internal/config"
	"github.com/pharmaguard-pgx-server/internal/domain"
	"github.com/pharmaguard-pgx-server/internal/mcp"
	"github.com/pharmaguard-pgx-server/internal/profile"
	"github.com/pharmaguard-pgx-server/internal/service"
)

func main() {
	cfg := config.LoadLiteConfig()
	logger := config.NewLogger(cfg.Logging())

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	reportCache, err := cache.Connect(ctx, domain.CacheConfig{RedisURL: cfg.RedisURL}, logger)
	if err != nil {
		log.Fatalf("Failed to connect report cache: %v", err)
	}
	if closer, ok := reportCache.(io.Closer); ok {
		defer closer.Close()
	}

	analysis, err := service.NewFromEngineConfig(cfg.Engine(), logger, service.WithReportCache(reportCache))
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	store, err := profile.NewSQLiteStore(cfg.ProfileDBPath())
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}

	server, err := mcp.NewServer(
		domain.MCPConfig{ServerName: "pharmaguard-pgx-server", ServerVersion: "v0.1.0"},
		analysis,
		logger,
		mcp.WithProfileStore(store),
		mcp.WithExportDir(cfg.ExportDir()),
	)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	logger.WithField("data_dir", cfg.DataDir).Info("PharmaGuard MCP server ready on stdio")

	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	logger.Info("PharmaGuard MCP server stopped")
}
