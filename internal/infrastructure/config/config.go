package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Gateway    GatewayConfig    `yaml:"gateway"`
	SystemPerf SystemPerfConfig `yaml:"system_perf"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Database   DatabaseConfig   `yaml:"database"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Section names used with the Get* lookup methods.
const (
	SectionGateway    = "gateway"
	SectionSystemPerf = "system_perf"
	SectionMQTT       = "mqtt"
	SectionDatabase   = "database"
	SectionInfluxDB   = "influxdb"
	SectionAPI        = "api"
	SectionWebSocket  = "websocket"
	SectionSMTP       = "smtp"
	SectionLogging    = "logging"
)

// Keys of the gateway section that enable optional components.
const (
	KeyEnableMQTTClient        = "enable_mqtt_client"
	KeyEnableCoAPServer        = "enable_coap_server"
	KeyEnableCloudClient       = "enable_cloud_client"
	KeyEnableSMTPClient        = "enable_smtp_client"
	KeyEnablePersistenceClient = "enable_persistence_client"
	KeyEnableSystemPerf        = "enable_system_perf"
)

// GatewayConfig identifies the gateway and selects which components run.
type GatewayConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	EnableMQTTClient        bool `yaml:"enable_mqtt_client"`
	EnableCoAPServer        bool `yaml:"enable_coap_server"`
	EnableCloudClient       bool `yaml:"enable_cloud_client"`
	EnableSMTPClient        bool `yaml:"enable_smtp_client"`
	EnablePersistenceClient bool `yaml:"enable_persistence_client"`
	EnableSystemPerf        bool `yaml:"enable_system_perf"`
}

// SystemPerfConfig contains host telemetry sampling settings.
type SystemPerfConfig struct {
	// PollInterval is the delay between samples, in seconds.
	PollInterval int `yaml:"poll_interval"`

	// DiskPath is the mount point whose utilization is sampled.
	DiskPath string `yaml:"disk_path"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DatabaseConfig contains settings for the local SQLite persistence store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays bounds how long stored records are kept. 0 keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// InfluxDBConfig contains settings for the cloud telemetry sink.
type InfluxDBConfig struct {
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the request/response gateway's HTTP settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// SMTPConfig contains settings for alert mail.
type SMTPConfig struct {
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	From          string   `yaml:"from"`
	To            []string `yaml:"to"`
	SubjectPrefix string   `yaml:"subject_prefix"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GATEWAY_SECTION_KEY
// For example: GATEWAY_DATABASE_PATH, GATEWAY_ENABLE_MQTT_CLIENT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. Only the system
// performance sampler is enabled.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ID:               "gateway-001",
			Name:             "Gray Logic Gateway",
			EnableSystemPerf: true,
		},
		SystemPerf: SystemPerfConfig{
			PollInterval: 30,
			DiskPath:     "/",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-gateway",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/gateway.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "graylogic",
			Bucket:        "gateway",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		SMTP: SMTPConfig{
			Port:          587,
			SubjectPrefix: "[gateway]",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GATEWAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Component flags
	envBool("GATEWAY_ENABLE_MQTT_CLIENT", &cfg.Gateway.EnableMQTTClient)
	envBool("GATEWAY_ENABLE_COAP_SERVER", &cfg.Gateway.EnableCoAPServer)
	envBool("GATEWAY_ENABLE_CLOUD_CLIENT", &cfg.Gateway.EnableCloudClient)
	envBool("GATEWAY_ENABLE_SMTP_CLIENT", &cfg.Gateway.EnableSMTPClient)
	envBool("GATEWAY_ENABLE_PERSISTENCE_CLIENT", &cfg.Gateway.EnablePersistenceClient)
	envBool("GATEWAY_ENABLE_SYSTEM_PERF", &cfg.Gateway.EnableSystemPerf)

	// System performance
	envInt("GATEWAY_SYSTEM_PERF_POLL_INTERVAL", &cfg.SystemPerf.PollInterval)

	// Database
	if v := os.Getenv("GATEWAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GATEWAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GATEWAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GATEWAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GATEWAY_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GATEWAY_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("GATEWAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// SMTP
	if v := os.Getenv("GATEWAY_SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("GATEWAY_SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}

	// Logging
	if v := os.Getenv("GATEWAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GATEWAY_LOG_OUTPUT"); v != "" {
		cfg.Logging.Output = v
	}
}

// envBool sets *dst from a boolean environment variable. Unparseable values are ignored.
func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// envInt sets *dst from an integer environment variable. Unparseable values are ignored.
func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the configuration for errors. Settings of disabled
// components are not checked.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.ID == "" {
		errs = append(errs, "gateway.id is required")
	}

	if c.Gateway.EnableSystemPerf {
		if c.SystemPerf.PollInterval < 1 {
			errs = append(errs, "system_perf.poll_interval must be at least 1 second")
		}
		if c.SystemPerf.DiskPath == "" {
			errs = append(errs, "system_perf.disk_path is required")
		}
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Gateway.EnableMQTTClient && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when the MQTT client is enabled")
	}

	if c.Gateway.EnablePersistenceClient && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the persistence client is enabled")
	}

	if c.Gateway.EnableCloudClient {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when the cloud client is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when the cloud client is enabled")
		}
	}

	if c.Gateway.EnableCoAPServer && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Gateway.EnableSMTPClient {
		if c.SMTP.Host == "" {
			errs = append(errs, "smtp.host is required when the SMTP client is enabled")
		}
		if c.SMTP.From == "" || len(c.SMTP.To) == 0 {
			errs = append(errs, "smtp.from and smtp.to are required when the SMTP client is enabled")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "text" {
		errs = append(errs, fmt.Sprintf("logging.format %q is not json or text", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadDuration returns the read timeout, also used for request headers.
func (t APITimeoutConfig) ReadDuration() time.Duration {
	return time.Duration(t.Read) * time.Second
}

// WriteDuration returns the write timeout.
func (t APITimeoutConfig) WriteDuration() time.Duration {
	return time.Duration(t.Write) * time.Second
}

// IdleDuration returns the keep-alive idle timeout.
func (t APITimeoutConfig) IdleDuration() time.Duration {
	return time.Duration(t.Idle) * time.Second
}

// GetPollInterval returns the system performance poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.SystemPerf.PollInterval) * time.Second
}
