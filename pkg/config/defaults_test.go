package config

import (
	"testing"
	"time"

	"github.com/hubvault/hubvault/pkg/store"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected format text, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Storage.Path != "./storage" {
		t.Errorf("Expected storage path ./storage, got %q", cfg.Storage.Path)
	}
	if cfg.Storage.MaxFileSize != 0 {
		t.Errorf("Expected no upload cap by default, got %d", cfg.Storage.MaxFileSize)
	}
	if cfg.Encryption.Mode != EncryptionModeStandard {
		t.Errorf("Expected encryption mode standard, got %q", cfg.Encryption.Mode)
	}
	if cfg.Locks.Expiry != 24*time.Hour {
		t.Errorf("Expected lock expiry 24h, got %v", cfg.Locks.Expiry)
	}
	if cfg.Locks.ReapInterval != 15*time.Minute {
		t.Errorf("Expected reap interval 15m, got %v", cfg.Locks.ReapInterval)
	}
	if cfg.Tokens.TTL != 5*time.Minute {
		t.Errorf("Expected token TTL 5m, got %v", cfg.Tokens.TTL)
	}
	if cfg.Tokens.Store != TokenStoreBadger {
		t.Errorf("Expected token store badger, got %q", cfg.Tokens.Store)
	}
	if cfg.Tokens.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected redis addr localhost:6379, got %q", cfg.Tokens.Redis.Addr)
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		t.Errorf("Expected sqlite database, got %q", cfg.Database.Type)
	}
	if !cfg.Deletion.SecureWipeEnabled() {
		t.Error("Expected secure wipe enabled")
	}
	if cfg.Deletion.WipeConcurrency != 4 {
		t.Errorf("Expected wipe concurrency 4, got %d", cfg.Deletion.WipeConcurrency)
	}
	if cfg.Audit.RetentionYears != 7 {
		t.Errorf("Expected audit retention 7 years, got %d", cfg.Audit.RetentionYears)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "debug"
	cfg.Storage.Path = "/var/lib/vault"
	cfg.Locks.Expiry = 2 * time.Hour
	cfg.Database.Type = store.DatabaseTypeSQLite

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Storage.Path != "/var/lib/vault" {
		t.Errorf("Explicit storage path lost: %q", cfg.Storage.Path)
	}
	if cfg.Locks.Expiry != 2*time.Hour {
		t.Errorf("Explicit lock expiry lost: %v", cfg.Locks.Expiry)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port while disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{}
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090 when enabled, got %d", cfg.Metrics.Port)
	}
}
