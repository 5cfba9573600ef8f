package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// startPostgres runs a throwaway PostgreSQL container. Docker is required, so
// the test only runs when PHARMAGUARD_INTEGRATION is set.
func startPostgres(t *testing.T) domain.DatabaseConfig {
	t.Helper()
	if os.Getenv("PHARMAGUARD_INTEGRATION") == "" {
		t.Skip("PHARMAGUARD_INTEGRATION not set, skipping PostgreSQL container tests")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return domain.DatabaseConfig{
		Driver:          "postgres",
		Host:            host,
		Port:            port.Int(),
		Database:        "testdb",
		Username:        "testuser",
		Password:        "testpass",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func TestDatabaseConnection(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	db, err := NewConnection(ctx, cfg, logger)
	require.NoError(t, err, "Failed to create database connection")
	defer db.Close()

	require.NoError(t, db.Health(ctx))

	stats := db.Stats()
	assert.Positive(t, stats.TotalConns(), "Expected at least one connection in pool")
	assert.Equal(t, int32(10), stats.MaxConns())
}

func TestMigrationRunner_UpDown(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	url := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	runner, err := NewMigrationRunner(url, migrationsDir(t), logger)
	require.NoError(t, err)
	defer runner.Close()

	version, _, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, runner.Up(ctx))
	require.NoError(t, runner.Up(ctx), "second Up is a no-op")

	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, runner.Down(ctx))
	version, _, err = runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestNewMigrationRunner_BadURL(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	_, err := NewMigrationRunner("notascheme://x", t.TempDir(), logger)
	assert.Error(t, err)
}
