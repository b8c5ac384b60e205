package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
	"tidytodo/backend"
)

// Backend implements backend.KeyValueStore using SQLite
type Backend struct {
	db *sql.DB
}

func init() {
	backend.Register("sqlite", func(path string) (backend.KeyValueStore, error) {
		return New(path)
	})
}

// New opens the SQLite database at path and initializes the schema
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

// initSchema creates the kv table if it doesn't exist
func (b *Backend) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Get returns the value stored under key
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Set upserts value under key
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	nowStr := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), nowStr,
	)
	return err
}

// Delete removes key
func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

// UpdatedAt returns when key was last written. ok is false for absent keys.
func (b *Backend) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var updatedStr string
	err := b.db.QueryRowContext(ctx, "SELECT updated_at FROM kv WHERE key = ?", key).Scan(&updatedStr)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return time.Time{}, false, err
	}
	return updated, true, nil
}

// Close closes the database connection
func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// Verify interface compliance at compile time
var _ backend.KeyValueStore = (*Backend)(nil)
