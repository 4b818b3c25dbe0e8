// Package config loads, validates and persists the vault configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (HUBVAULT_*, plus a handful of bare aliases
//     the deployment docs name)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hubvault/hubvault/internal/bytesize"
	"github.com/hubvault/hubvault/pkg/api"
	"github.com/hubvault/hubvault/pkg/store"
)

// Encryption modes for content at rest.
const (
	EncryptionModeStandard  = "standard"
	EncryptionModeEncrypted = "encrypted"
)

// Token store backends.
const (
	TokenStoreBadger = "badger"
	TokenStoreRedis  = "redis"
)

// Config is the static configuration of the vault server.
//
// Dynamic state (projects, files, locks, audit trail) lives in the
// database; everything here is what an operator decides before start.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Storage configures the content-addressed blob store
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Encryption selects how content is stored at rest
	Encryption EncryptionConfig `mapstructure:"encryption" yaml:"encryption"`

	// Locks configures check-out behavior
	Locks LocksConfig `mapstructure:"locks" yaml:"locks"`

	// Tokens configures single-use download tickets
	Tokens TokensConfig `mapstructure:"tokens" yaml:"tokens"`

	// Database configures the metadata store (SQLite or PostgreSQL)
	Database store.Config `mapstructure:"database" yaml:"database"`

	// Deletion configures secure content removal
	Deletion DeletionConfig `mapstructure:"deletion" yaml:"deletion"`

	// Audit configures the compliance trail
	Audit AuditConfig `mapstructure:"audit" yaml:"audit"`

	// API contains the HTTP API server configuration
	API api.Config `mapstructure:"api" yaml:"api"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing. When enabled,
// trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is on. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection. Default: true
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is on. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL. Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// StorageConfig configures the content-addressed blob store.
type StorageConfig struct {
	// Path is the base directory blobs are stored under.
	// Override: STORAGE_PATH or HUBVAULT_STORAGE_PATH
	// Default: ./storage
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// MaxFileSize caps single uploads. Zero means no cap.
	// Supports human-readable sizes: "100MB", "1Gi"
	MaxFileSize bytesize.ByteSize `mapstructure:"max_file_size" yaml:"max_file_size,omitempty"`
}

// EncryptionConfig selects how content is stored at rest.
type EncryptionConfig struct {
	// Mode is "standard" (plaintext blobs, content-hash addressing) or
	// "encrypted" (AES-256-GCM envelopes, per-project derived keys).
	// The mode of an existing vault must not change: blob addresses
	// depend on it.
	// Override: ENCRYPTION_MODE or HUBVAULT_ENCRYPTION_MODE
	Mode string `mapstructure:"mode" validate:"required,oneof=standard encrypted" yaml:"mode"`

	// MasterKey is the base64-encoded 32-byte master key project keys
	// are derived from. Required when Mode is "encrypted"; never logged.
	// Override: ENCRYPTION_MASTER_KEY or HUBVAULT_ENCRYPTION_MASTER_KEY
	MasterKey string `mapstructure:"master_key" yaml:"master_key,omitempty"`
}

// LocksConfig configures check-out behavior.
type LocksConfig struct {
	// Expiry is how long a check-out lasts before anyone may take the
	// file over. Override: LOCK_EXPIRY_HOURS (whole hours). Default: 24h
	Expiry time.Duration `mapstructure:"expiry" validate:"omitempty,gt=0" yaml:"expiry"`

	// ReapInterval is how often the background sweep removes lapsed
	// locks. Default: 15m
	ReapInterval time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`
}

// TokensConfig configures single-use download tickets.
type TokensConfig struct {
	// TTL is how long an unredeemed ticket stays valid.
	// Override: DOWNLOAD_TOKEN_EXPIRY_SECONDS (whole seconds). Default: 5m
	TTL time.Duration `mapstructure:"ttl" validate:"omitempty,gt=0" yaml:"ttl"`

	// Store selects the ticket backend: "badger" (embedded, default) or
	// "redis" (shared, for multi-node deployments).
	Store string `mapstructure:"store" validate:"required,oneof=badger redis" yaml:"store"`

	// Badger configures the embedded backend
	Badger BadgerConfig `mapstructure:"badger" yaml:"badger"`

	// Redis configures the shared backend
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// BadgerConfig configures the embedded token store.
type BadgerConfig struct {
	// Path is the directory for the database files.
	// Default: <storage path>/tokens
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory keeps tickets in RAM; they do not survive a restart
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// RedisConfig configures the shared token store.
type RedisConfig struct {
	// Addr is the redis server address (host:port). Default: localhost:6379
	Addr string `mapstructure:"addr" yaml:"addr"`

	// Password authenticates against the server; empty for none
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// DB is the redis database number
	DB int `mapstructure:"db" yaml:"db,omitempty"`
}

// DeletionConfig configures secure content removal.
type DeletionConfig struct {
	// SecureWipe overwrites blobs (DoD 5220.22-M, three passes) before
	// unlinking. Override: SECURE_DELETE_ENABLED. Default: true
	SecureWipe *bool `mapstructure:"secure_wipe" yaml:"secure_wipe"`

	// WipeConcurrency bounds parallel wipes during project deletion.
	// Default: 4
	WipeConcurrency int `mapstructure:"wipe_concurrency" validate:"omitempty,min=1" yaml:"wipe_concurrency"`
}

// AuditConfig configures the compliance trail.
type AuditConfig struct {
	// RetentionYears is how long audit entries must be kept. The vault
	// never deletes audit rows itself; the value feeds compliance
	// reports and operator tooling.
	// Override: AUDIT_RETENTION_YEARS. Default: 7
	RetentionYears int `mapstructure:"retention_years" validate:"omitempty,min=1" yaml:"retention_years"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When
// Enabled is false, no metrics are collected.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP server run
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint. Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// SecureWipeEnabled resolves the secure-wipe tristate.
func (c *DeletionConfig) SecureWipeEnabled() bool {
	return c.SecureWipe == nil || *c.SecureWipe
}

// MasterKeyBytes decodes the configured master key. Callers must zero the
// returned slice when done.
func (c *EncryptionConfig) MasterKeyBytes() ([]byte, error) {
	return decodeMasterKey(c.MasterKey)
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if configFileFound || len(v.AllSettings()) > 0 {
		if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvAliases(&cfg)
	ApplyDefaults(&cfg)
	applyEnvDurationAliases(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the file
// is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  hubvault init\n\n"+
				"Or specify a custom config file:\n"+
				"  hubvault <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  hubvault init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
// The file is written 0600: the encryption master key and the JWT secret
// must not be world-readable.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// HUBVAULT_LOCKS_EXPIRY=48h style overrides for every key.
	v.SetEnvPrefix("HUBVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// applyEnvAliases honors the bare environment keys the deployment docs
// name, on top of the HUBVAULT_* scheme. Runs before defaulting so
// derived defaults, the badger path under the storage root among them,
// see the overridden values.
func applyEnvAliases(cfg *Config) {
	if s := os.Getenv("STORAGE_PATH"); s != "" {
		cfg.Storage.Path = s
	}
	if s := os.Getenv("ENCRYPTION_MODE"); s != "" {
		cfg.Encryption.Mode = s
	}
	if s := os.Getenv("ENCRYPTION_MASTER_KEY"); s != "" {
		cfg.Encryption.MasterKey = s
	}
	if s := os.Getenv("SECURE_DELETE_ENABLED"); s != "" {
		enabled := strings.EqualFold(s, "true") || s == "1"
		cfg.Deletion.SecureWipe = &enabled
	}
	if s := os.Getenv("AUDIT_RETENTION_YEARS"); s != "" {
		var years int
		if _, err := fmt.Sscanf(s, "%d", &years); err == nil && years > 0 {
			cfg.Audit.RetentionYears = years
		}
	}
}

// applyEnvDurationAliases applies the duration aliases after defaulting,
// so an explicit zero survives. LOCK_EXPIRY_HOURS=0 means locks lapse the
// moment they are taken, not "use the 24h default". Units follow the
// documented variables: hours for lock expiry, seconds for ticket TTL.
func applyEnvDurationAliases(cfg *Config) {
	if s := os.Getenv("LOCK_EXPIRY_HOURS"); s != "" {
		if hours, err := time.ParseDuration(s + "h"); err == nil {
			cfg.Locks.Expiry = hours
		}
	}
	if s := os.Getenv("DOWNLOAD_TOKEN_EXPIRY_SECONDS"); s != "" {
		if secs, err := time.ParseDuration(s + "s"); err == nil {
			cfg.Tokens.TTL = secs
		}
	}
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and integers to bytesize.ByteSize,
// so config files can say "100MB" or "1Gi".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, so config files
// can say "30s", "5m", "24h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers are nanoseconds
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path. Uses
// XDG_CONFIG_HOME if set, otherwise ~/.config, falling back to the
// current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hubvault")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "hubvault")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default
// location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
