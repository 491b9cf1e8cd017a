package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/pkg/db/migrations"
	"github.com/peerly/peerly/pkg/storage"
	_ "github.com/mattn/go-sqlite3"
)

// Schema migrations for the key/value table
var schema = []migrations.Migration{
	{
		Version:     "001",
		Description: "create kv table",
		SQL: `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

// Storage implements storage.Storage using SQLite
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies the schema
func New(ctx context.Context, dbPath string, logger *logging.Logger) (*Storage, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := migrations.NewMigrator(db, schema, logger).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Migrate applies pending schema migrations to the database at dbPath and
// returns how many were applied
func Migrate(ctx context.Context, dbPath string, logger *logging.Logger) (int, error) {
	db, err := open(dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return migrations.NewMigrator(db, schema, logger).MigrateUp(ctx)
}

func open(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" coherent
	db.SetMaxOpenConns(1)
	return db, nil
}

// Get implements storage.Storage
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("error getting %s: %w", key, err)
	}
	return value, nil
}

// Set implements storage.Storage
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	// Use a standardized timestamp format (SQLite default format)
	formattedTime := time.Now().UTC().Format("2006-01-02 15:04:05")
	if value == nil {
		value = []byte{}
	}

	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value, formattedTime); err != nil {
		return fmt.Errorf("error setting %s: %w", key, err)
	}
	return nil
}

// Delete implements storage.Storage
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("error deleting %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
