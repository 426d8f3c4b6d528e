// Package sqlite provides a single-file attendance store for kiosks without a
// database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

// BackendName is the STORE_BACKEND value selecting this package.
const BackendName = "sqlite"

const schema = `
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		identity TEXT NOT NULL,
		ts DATETIME NOT NULL,
		confidence REAL NOT NULL DEFAULT 0,
		classifier TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_ts ON attendance(ts);
	CREATE INDEX IF NOT EXISTS idx_attendance_identity_ts ON attendance(identity, ts);
	`

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens (creating if needed) the database at path and migrates it.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.ExecContext(context.Background(), schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// NewAttendanceRepository returns the attendance store backed by db.
func NewAttendanceRepository(db *DB) *database.SQLRepository {
	return database.NewSQLRepository(db.conn, database.QuestionPlaceholder)
}

// Initialize opens the configured file and registers the store.
func Initialize(cfg *config.SQLiteConfig) (*DB, error) {
	db, err := New(cfg.Path)
	if err != nil {
		return nil, err
	}
	database.RegisterStore(BackendName, NewAttendanceRepository(db))
	return db, nil
}
