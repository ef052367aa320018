package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const (
	openTimeout = 5 * time.Second

	dirMode  = 0o750
	fileMode = 0o600
)

// ErrNoPath is returned by Open when database.path is empty.
var ErrNoPath = errors.New("database: no path configured")

// DB is the gateway's SQLite handle. SQLite allows one writer, so the
// pool holds a single connection and callers never see SQLITE_BUSY from
// their own process.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at cfg.Path and checks the
// connection within ctx.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.Path == "" {
		return nil, ErrNoPath
	}

	memory := cfg.Path == MemoryPath
	if !memory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirMode); err != nil {
			return nil, fmt.Errorf("database: creating directory for %s: %w", cfg.Path, err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("database: opening %s: %w", cfg.Path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	// A recycled connection to :memory: would be a fresh, empty database.
	if !memory {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	pingCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("database: connecting to %s: %w", cfg.Path, err)
	}

	if !memory {
		os.Chmod(cfg.Path, fileMode) //nolint:errcheck // the file can lag the first write under WAL
	}
	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// dsn builds the go-sqlite3 connection string. Busy timeout is configured
// in seconds and passed in milliseconds; WAL is skipped for :memory:.
func dsn(cfg config.DatabaseConfig) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	if cfg.BusyTimeout > 0 {
		q.Set("_busy_timeout", strconv.Itoa(cfg.BusyTimeout*1000))
	}
	if cfg.WALMode && cfg.Path != MemoryPath {
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Path returns the configured database path.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck round-trips a query through the connection.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database: health check: %w", err)
	}
	return nil
}

// Close closes the handle. Safe on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
