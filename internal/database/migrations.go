package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the SQL files under migrations/ to PostgreSQL.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner opens migrationsPath as a file source against a postgres:// URL.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	return &MigrationRunner{migrate: m, log: logger}, nil
}

// Migrate brings the schema at databaseURL up to date and closes the runner.
func Migrate(ctx context.Context, databaseURL, migrationsPath string, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	upErr := runner.Up(ctx)
	closeErr := runner.Close()
	return errors.Join(upErr, closeErr)
}

// Up applies every pending migration. No pending migrations is not an error.
func (mr *MigrationRunner) Up(ctx context.Context) error {
	return mr.apply(ctx, "up", mr.migrate.Up)
}

// Down rolls back the most recent migration.
func (mr *MigrationRunner) Down(ctx context.Context) error {
	return mr.apply(ctx, "down", func() error { return mr.migrate.Steps(-1) })
}

func (mr *MigrationRunner) apply(ctx context.Context, direction string, step func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := step()
	if errors.Is(err, migrate.ErrNoChange) {
		mr.log.WithField("direction", direction).Info("Schema already current")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}

	fields := logrus.Fields{"direction": direction}
	if version, dirty, err := mr.Version(); err == nil {
		fields["version"] = version
		fields["dirty"] = dirty
	}
	mr.log.WithFields(fields).Info("Schema migrated")
	return nil
}

// Version returns the current migration version. A fresh database reports
// version 0 rather than migrate.ErrNilVersion.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	version, dirty, err := mr.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the migration source and database handles.
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
