package profile

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	sqlStore
	dbPath string
}

var sqliteQueries = queries{
	insert: `INSERT INTO profiles (id, name, analyzed_at, genes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
	update: `UPDATE profiles SET name = ?, genes = ?, updated_at = ? WHERE id = ?`,
	get: `SELECT id, name, analyzed_at, genes, created_at, updated_at
		FROM profiles WHERE id = ?`,
	list: `SELECT id, name, analyzed_at, genes, created_at, updated_at
		FROM profiles ORDER BY created_at DESC LIMIT ? OFFSET ?`,
	count:  `SELECT COUNT(*) FROM profiles`,
	delete: `DELETE FROM profiles WHERE id = ?`,
}

// NewSQLiteStore creates a new SQLite profile store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		sqlStore: sqlStore{db: db, q: sqliteQueries},
		dbPath:   dbPath,
	}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		analyzed_at DATETIME NOT NULL,
		genes TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_created_at ON profiles(created_at);
	`

	_, err := db.Exec(schema)
	return err
}
