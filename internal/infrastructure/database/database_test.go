package database

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

// openTestDB opens a WAL database in a temp dir and closes it at cleanup.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "gateway.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}

func TestOpen_CreatesFileAndDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "var", "lib", "gateway.db")

	db, err := Open(context.Background(), config.DatabaseConfig{Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	// The file exists once something is written.
	if _, err := db.ExecContext(context.Background(), "CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if info.IsDir() {
		t.Errorf("%s is a directory", path)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(context.Background(), config.DatabaseConfig{Path: MemoryPath, WALMode: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestOpen_NoPath(t *testing.T) {
	if _, err := Open(context.Background(), config.DatabaseConfig{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("Open() error = %v, want ErrNoPath", err)
	}
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Open(ctx, config.DatabaseConfig{Path: MemoryPath}); err == nil {
		t.Error("Open() with a cancelled context returned nil error")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want map[string]string
	}{
		{
			name: "file with wal",
			cfg:  config.DatabaseConfig{Path: "/data/gateway.db", WALMode: true, BusyTimeout: 5},
			want: map[string]string{"_foreign_keys": "on", "_busy_timeout": "5000", "_journal_mode": "WAL", "_synchronous": "NORMAL"},
		},
		{
			name: "memory ignores wal",
			cfg:  config.DatabaseConfig{Path: MemoryPath, WALMode: true},
			want: map[string]string{"_foreign_keys": "on", "_busy_timeout": "", "_journal_mode": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dsn(tt.cfg)
			path, rawQuery, ok := strings.Cut(got, "?")
			if !ok || path != "file:"+tt.cfg.Path {
				t.Fatalf("dsn() = %q", got)
			}
			q, err := url.ParseQuery(rawQuery)
			if err != nil {
				t.Fatalf("parsing query: %v", err)
			}
			for k, v := range tt.want {
				if q.Get(k) != v {
					t.Errorf("%s = %q, want %q", k, q.Get(k), v)
				}
			}
		})
	}
}

func TestClose(t *testing.T) {
	db, err := Open(context.Background(), config.DatabaseConfig{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := db.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() after Close() = nil")
	}

	var nilDB *DB
	if err := nilDB.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}
