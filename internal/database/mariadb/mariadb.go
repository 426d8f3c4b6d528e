package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
)

// BackendName is the STORE_BACKEND value selecting this package.
const BackendName = "mariadb"

const schema = `
	CREATE TABLE IF NOT EXISTS attendance (
		id          CHAR(36) NOT NULL PRIMARY KEY,
		identity    VARCHAR(255) NOT NULL,
		ts          DATETIME(3) NOT NULL,
		confidence  DOUBLE NOT NULL DEFAULT 0,
		classifier  VARCHAR(255) NOT NULL DEFAULT '',
		created_at  DATETIME(3) NOT NULL,
		INDEX idx_attendance_ts (ts),
		INDEX idx_attendance_identity_ts (identity, ts)
	) CHARACTER SET utf8mb4`

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// normalizeDSN forces parseTime and UTC so DATETIME columns scan into time.Time.
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MARIADB_DSN is required for the mariadb store")
	}
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Migrate creates the attendance table if it does not exist.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create attendance table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Initialize connects, creates the schema and registers the store.
func Initialize(cfg *config.MariaDBConfig) (*Pool, error) {
	pool, err := NewPool(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	database.RegisterStore(BackendName, NewAttendanceRepository(pool))
	return pool, nil
}

// NewAttendanceRepository returns the attendance store backed by this pool.
func NewAttendanceRepository(p *Pool) *database.SQLRepository {
	return database.NewSQLRepository(p.db, database.QuestionPlaceholder)
}
