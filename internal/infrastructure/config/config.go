package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for GRN Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Workflow    WorkflowConfig    `yaml:"workflow"`
	ERP         ERPConfig         `yaml:"erp"`
	Database    DatabaseConfig    `yaml:"database"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	API         APIConfig         `yaml:"api"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
	Scanning    ScanningConfig    `yaml:"scanning"`
}

// WorkflowConfig carries the receiving context that was previously implicit
// ambient state (selected organization, employee). It is passed explicitly
// into every workflow at construction.
type WorkflowConfig struct {
	// OrganizationCode identifies the receiving inventory organization.
	OrganizationCode string `yaml:"organization_code"`

	// BusinessUnit is the default business unit for vendor receipts.
	BusinessUnit string `yaml:"business_unit"`

	// LegalEntity is the default legal entity for vendor receipts.
	LegalEntity string `yaml:"legal_entity"`

	// EmployeeID identifies the receiving employee on submitted payloads.
	EmployeeID string `yaml:"employee_id"`
}

// ERPConfig contains connection settings for the backend receipt API.
type ERPConfig struct {
	// BaseURL is the root URL of the ERP REST endpoints.
	BaseURL string `yaml:"base_url"`

	// Username and Password authenticate against the ERP. Credentials
	// should be supplied via environment variables in production.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// AttachmentsConfig contains settings for the local attachment cache.
type AttachmentsConfig struct {
	// Dir is the directory holding cached attachment files awaiting upload.
	Dir string `yaml:"dir"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket progress-stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains settings for the optional receipt-event publisher.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains settings for optional submission telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ScanningConfig contains barcode decoding settings.
type ScanningConfig struct {
	// ValidateGTIN enables mod-10 check-digit validation on decoded GTINs.
	// When disabled, any 14-digit run is accepted as a GTIN.
	ValidateGTIN bool `yaml:"validate_gtin"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRNCORE_SECTION_KEY
// For example: GRNCORE_DATABASE_PATH, GRNCORE_ERP_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Workflow: WorkflowConfig{
			OrganizationCode: "MAIN",
		},
		ERP: ERPConfig{
			Timeout: 60,
		},
		Database: DatabaseConfig{
			Path:        "./data/grncore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Attachments: AttachmentsConfig{
			Dir: "./data/attachments",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 120,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "grncore",
			},
			QoS: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRNCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Workflow
	if v := os.Getenv("GRNCORE_WORKFLOW_ORGANIZATION"); v != "" {
		cfg.Workflow.OrganizationCode = v
	}
	if v := os.Getenv("GRNCORE_WORKFLOW_EMPLOYEE"); v != "" {
		cfg.Workflow.EmployeeID = v
	}

	// ERP
	if v := os.Getenv("GRNCORE_ERP_BASE_URL"); v != "" {
		cfg.ERP.BaseURL = v
	}
	if v := os.Getenv("GRNCORE_ERP_USERNAME"); v != "" {
		cfg.ERP.Username = v
	}
	if v := os.Getenv("GRNCORE_ERP_PASSWORD"); v != "" {
		cfg.ERP.Password = v
	}

	// Database
	if v := os.Getenv("GRNCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Attachments
	if v := os.Getenv("GRNCORE_ATTACHMENTS_DIR"); v != "" {
		cfg.Attachments.Dir = v
	}

	// API
	if v := os.Getenv("GRNCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GRNCORE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("GRNCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRNCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRNCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRNCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Workflow validation
	if c.Workflow.OrganizationCode == "" {
		errs = append(errs, "workflow.organization_code is required")
	}

	// ERP validation
	if c.ERP.BaseURL == "" {
		errs = append(errs, "erp.base_url is required (set GRNCORE_ERP_BASE_URL environment variable)")
	}
	if c.ERP.Timeout <= 0 {
		errs = append(errs, "erp.timeout must be positive")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Attachments validation
	if c.Attachments.Dir == "" {
		errs = append(errs, "attachments.dir is required")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ERPTimeout returns the ERP request timeout as a Duration.
func (c *Config) ERPTimeout() time.Duration {
	return time.Duration(c.ERP.Timeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
