// Package sqlite implements the repository interfaces using SQLite as
// the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// cross-compiles without a C toolchain. Use ":memory:" as the path for
// throwaway databases in tests.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite connection pool and runs migrations. The parent
// directory is created if needed; ":memory:" goes straight to open.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection so a bad path or permission
	// problem surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight. Every request
	// goroutine appends a run record, so the default locking would
	// serialize the API under load.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the runs table. CREATE TABLE IF NOT EXISTS keeps it
// safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			language     TEXT NOT NULL,
			status       TEXT NOT NULL,
			exit_code    INTEGER NOT NULL DEFAULT 0,
			signal       TEXT NOT NULL DEFAULT '',
			timed_out    INTEGER NOT NULL DEFAULT 0,
			truncated    INTEGER NOT NULL DEFAULT 0,
			stdout_bytes INTEGER NOT NULL DEFAULT 0,
			stderr_bytes INTEGER NOT NULL DEFAULT 0,
			duration_ms  INTEGER NOT NULL DEFAULT 0,
			engine       TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}
	return nil
}
