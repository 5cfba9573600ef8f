package profile

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	sqlStore
}

var postgresQueries = queries{
	insert: `INSERT INTO profiles (id, name, analyzed_at, genes, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
	update: `UPDATE profiles SET name = $1, genes = $2::jsonb, updated_at = $3 WHERE id = $4`,
	get: `SELECT id, name, analyzed_at, genes, created_at, updated_at
		FROM profiles WHERE id = $1`,
	list: `SELECT id, name, analyzed_at, genes, created_at, updated_at
		FROM profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
	count:  `SELECT COUNT(*) FROM profiles`,
	delete: `DELETE FROM profiles WHERE id = $1`,
}

// NewPostgresStore creates a new PostgreSQL profile store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{sqlStore{db: db, q: postgresQueries}}, nil
}

// NewPostgresStoreFromConfig opens a lib/pq connection pool sized from cfg.
func NewPostgresStoreFromConfig(dsn string, cfg domain.DatabaseConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
