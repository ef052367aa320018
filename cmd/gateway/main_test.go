package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, nil, io.Discard); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_ValidationFailure verifies run refuses a config that fails validation.
func TestRun_ValidationFailure(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", writeConfig(t, `
gateway:
  id: test-gateway
  enable_system_perf: true
system_perf:
  poll_interval: 0
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, nil, io.Discard); err == nil {
		t.Fatal("run() should fail when poll_interval is 0")
	}
}

// TestRun_CleanShutdown starts the gateway with only the sampler and the
// persistence client and verifies it stops when the context is cancelled.
func TestRun_CleanShutdown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "gateway.db")
	t.Setenv("GATEWAY_CONFIG", writeConfig(t, `
gateway:
  id: test-gateway
  enable_system_perf: true
  enable_persistence_client: true
system_perf:
  poll_interval: 1
  disk_path: "/"
database:
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
logging:
  level: error
  format: text
  output: stdout
`))

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, nil, io.Discard) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after context cancellation")
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("persistence client did not create database: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("GATEWAY_CONFIG", "/etc/gateway/config.yaml")
	if got := getConfigPath(); got != "/etc/gateway/config.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/gateway/config.yaml", got)
	}
}

func TestRun_ConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG", "/nonexistent/path/config.yaml")
	path := writeConfig(t, `
gateway:
  id: flag-gateway
  enable_system_perf: false
logging:
  level: error
`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, []string{"-config", path}, io.Discard); err != nil {
		t.Fatalf("run() with -config error: %v", err)
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer

	if err := run(context.Background(), []string{"-version"}, &out); err != nil {
		t.Fatalf("run(-version) error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "gateway "+version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	if err := run(context.Background(), []string{"-bogus"}, io.Discard); err == nil {
		t.Error("run() with an unknown flag returned nil")
	}
}
