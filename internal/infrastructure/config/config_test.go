package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  id: "test-gateway"
  enable_mqtt_client: true
  enable_persistence_client: true
system_perf:
  poll_interval: 5
  disk_path: "/var"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 2
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.ID != "test-gateway" {
		t.Errorf("Gateway.ID = %q, want %q", cfg.Gateway.ID, "test-gateway")
	}
	if !cfg.Gateway.EnableMQTTClient || !cfg.Gateway.EnablePersistenceClient {
		t.Error("component flags not loaded")
	}
	// Not set in the file, so the default survives.
	if !cfg.Gateway.EnableSystemPerf {
		t.Error("EnableSystemPerf default lost")
	}
	if cfg.GetPollInterval() != 5*time.Second {
		t.Errorf("GetPollInterval() = %v, want 5s", cfg.GetPollInterval())
	}
	if cfg.SystemPerf.DiskPath != "/var" {
		t.Errorf("SystemPerf.DiskPath = %q, want %q", cfg.SystemPerf.DiskPath, "/var")
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("MQTT.QoS = %d, want 2", cfg.MQTT.QoS)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
gateway:
  id: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty gateway.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing gateway ID",
			mutate:  func(c *Config) { c.Gateway.ID = "" },
			wantErr: "gateway.id",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.SystemPerf.PollInterval = 0 },
			wantErr: "system_perf.poll_interval",
		},
		{
			name: "zero poll interval ignored when sampler disabled",
			mutate: func(c *Config) {
				c.Gateway.EnableSystemPerf = false
				c.SystemPerf.PollInterval = 0
			},
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name: "MQTT enabled without host",
			mutate: func(c *Config) {
				c.Gateway.EnableMQTTClient = true
				c.MQTT.Broker.Host = ""
			},
			wantErr: "mqtt.broker.host",
		},
		{
			name: "persistence enabled without path",
			mutate: func(c *Config) {
				c.Gateway.EnablePersistenceClient = true
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name: "cloud enabled without bucket",
			mutate: func(c *Config) {
				c.Gateway.EnableCloudClient = true
				c.InfluxDB.Bucket = ""
			},
			wantErr: "influxdb.bucket",
		},
		{
			name: "api enabled with invalid port",
			mutate: func(c *Config) {
				c.Gateway.EnableCoAPServer = true
				c.API.Port = 70000
			},
			wantErr: "api.port",
		},
		{
			name:    "smtp enabled without host",
			mutate:  func(c *Config) { c.Gateway.EnableSMTPClient = true },
			wantErr: "smtp.host",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "logging.level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "logfmt" },
			wantErr: "logging.format",
		},
		{
			name:   "log level is case-insensitive",
			mutate: func(c *Config) { c.Logging.Level = "WARN"; c.Logging.Format = "Text" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Gateway.ID = ""
	cfg.MQTT.QoS = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"gateway.id", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, missing %q", err, want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.API.Timeouts.ReadDuration().Seconds(); got != 30 {
		t.Errorf("ReadDuration() = %v, want 30", got)
	}
	if got := cfg.API.Timeouts.WriteDuration().Seconds(); got != 45 {
		t.Errorf("WriteDuration() = %v, want 45", got)
	}
	if got := cfg.API.Timeouts.IdleDuration().Seconds(); got != 60 {
		t.Errorf("IdleDuration() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("GATEWAY_ENABLE_MQTT_CLIENT", "true")
	t.Setenv("GATEWAY_ENABLE_SYSTEM_PERF", "false")
	t.Setenv("GATEWAY_SYSTEM_PERF_POLL_INTERVAL", "12")
	t.Setenv("GATEWAY_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GATEWAY_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GATEWAY_MQTT_USERNAME", "testuser")
	t.Setenv("GATEWAY_MQTT_PASSWORD", "testpass")
	t.Setenv("GATEWAY_API_HOST", "192.168.1.1")
	t.Setenv("GATEWAY_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GATEWAY_SMTP_HOST", "smtp.example.com")
	t.Setenv("GATEWAY_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if !cfg.Gateway.EnableMQTTClient {
		t.Error("Gateway.EnableMQTTClient = false, want true")
	}
	if cfg.Gateway.EnableSystemPerf {
		t.Error("Gateway.EnableSystemPerf = true, want false")
	}
	if cfg.SystemPerf.PollInterval != 12 {
		t.Errorf("SystemPerf.PollInterval = %d, want 12", cfg.SystemPerf.PollInterval)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v, want testuser/testpass", cfg.MQTT.Auth)
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.SMTP.Host != "smtp.example.com" {
		t.Errorf("SMTP.Host = %q, want %q", cfg.SMTP.Host, "smtp.example.com")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_IgnoresUnparseable(t *testing.T) {
	cfg := Default()
	t.Setenv("GATEWAY_ENABLE_SYSTEM_PERF", "maybe")
	t.Setenv("GATEWAY_SYSTEM_PERF_POLL_INTERVAL", "soon")

	applyEnvOverrides(cfg)

	if !cfg.Gateway.EnableSystemPerf {
		t.Error("unparseable bool overrode the default")
	}
	if cfg.SystemPerf.PollInterval != 30 {
		t.Errorf("SystemPerf.PollInterval = %d, want 30", cfg.SystemPerf.PollInterval)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Gateway.ID == "" {
		t.Error("Default should have non-empty Gateway.ID")
	}
	if cfg.Gateway.EnableMQTTClient || cfg.Gateway.EnableCloudClient || cfg.Gateway.EnableCoAPServer ||
		cfg.Gateway.EnableSMTPClient || cfg.Gateway.EnablePersistenceClient {
		t.Error("Default should only enable the system performance sampler")
	}
	if cfg.SystemPerf.PollInterval != 30 {
		t.Errorf("Default SystemPerf.PollInterval = %d, want 30", cfg.SystemPerf.PollInterval)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}
