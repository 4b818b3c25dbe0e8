package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/hubvault/hubvault/pkg/api"
	"github.com/hubvault/hubvault/pkg/store"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyStorageDefaults(&cfg.Storage)
	applyEncryptionDefaults(&cfg.Encryption)
	applyLocksDefaults(&cfg.Locks)
	applyTokensDefaults(&cfg.Tokens, cfg.Storage.Path)
	applyDatabaseDefaults(&cfg.Database)
	applyDeletionDefaults(&cfg.Deletion)
	applyAuditDefaults(&cfg.Audit)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Path == "" {
		cfg.Path = "./storage"
	}
	// MaxFileSize defaults to 0: no cap.
}

func applyEncryptionDefaults(cfg *EncryptionConfig) {
	if cfg.Mode == "" {
		cfg.Mode = EncryptionModeStandard
	}
	cfg.Mode = strings.ToLower(cfg.Mode)
}

func applyLocksDefaults(cfg *LocksConfig) {
	if cfg.Expiry == 0 {
		cfg.Expiry = 24 * time.Hour
	}
	if cfg.ReapInterval == 0 {
		cfg.ReapInterval = 15 * time.Minute
	}
}

func applyTokensDefaults(cfg *TokensConfig, storagePath string) {
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Store == "" {
		cfg.Store = TokenStoreBadger
	}
	cfg.Store = strings.ToLower(cfg.Store)

	if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
		cfg.Badger.Path = filepath.Join(storagePath, "tokens")
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
}

func applyDatabaseDefaults(cfg *store.Config) {
	cfg.ApplyDefaults()
}

func applyDeletionDefaults(cfg *DeletionConfig) {
	if cfg.SecureWipe == nil {
		enabled := true
		cfg.SecureWipe = &enabled
	}
	if cfg.WipeConcurrency == 0 {
		cfg.WipeConcurrency = 4
	}
}

func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.RetentionYears == 0 {
		cfg.RetentionYears = 7
	}
}

func applyAPIDefaults(cfg *api.Config) {
	cfg.ApplyDefaults()
}

// applyMetricsDefaults sets metrics defaults. Port defaults only when
// metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied. Useful for generating sample configuration files, testing and
// documentation.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
