package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"

storage:
  path: "` + yamlSafePath(tmpDir) + `/blobs"

database:
  type: sqlite
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Encryption.Mode != EncryptionModeStandard {
		t.Errorf("Expected default encryption mode 'standard', got %q", cfg.Encryption.Mode)
	}
	if cfg.Locks.Expiry != 24*time.Hour {
		t.Errorf("Expected default lock expiry 24h, got %v", cfg.Locks.Expiry)
	}
	if cfg.Locks.ReapInterval != 15*time.Minute {
		t.Errorf("Expected default reap interval 15m, got %v", cfg.Locks.ReapInterval)
	}
	if cfg.Tokens.TTL != 5*time.Minute {
		t.Errorf("Expected default token TTL 5m, got %v", cfg.Tokens.TTL)
	}
	if cfg.Tokens.Store != TokenStoreBadger {
		t.Errorf("Expected default token store 'badger', got %q", cfg.Tokens.Store)
	}

	wantBadger := filepath.Join(tmpDir, "blobs", "tokens")
	if filepath.Clean(cfg.Tokens.Badger.Path) != wantBadger {
		t.Errorf("Expected badger path %q, got %q", wantBadger, cfg.Tokens.Badger.Path)
	}

	if !cfg.Deletion.SecureWipeEnabled() {
		t.Error("Expected secure wipe enabled by default")
	}
	if cfg.Audit.RetentionYears != 7 {
		t.Errorf("Expected default audit retention of 7 years, got %d", cfg.Audit.RetentionYears)
	}
}

func TestLoad_ExplicitValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  path: "` + yamlSafePath(tmpDir) + `/blobs"
  max_file_size: 100MB

locks:
  expiry: 48h

tokens:
  ttl: 90s
  store: redis
  redis:
    addr: "redis.internal:6379"

deletion:
  secure_wipe: false

database:
  type: sqlite
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Storage.MaxFileSize != 100*1000*1000 {
		t.Errorf("Expected max file size 100MB, got %d", cfg.Storage.MaxFileSize)
	}
	if cfg.Locks.Expiry != 48*time.Hour {
		t.Errorf("Expected lock expiry 48h, got %v", cfg.Locks.Expiry)
	}
	if cfg.Tokens.TTL != 90*time.Second {
		t.Errorf("Expected token TTL 90s, got %v", cfg.Tokens.TTL)
	}
	if cfg.Tokens.Store != TokenStoreRedis {
		t.Errorf("Expected token store 'redis', got %q", cfg.Tokens.Store)
	}
	if cfg.Tokens.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Expected redis addr override, got %q", cfg.Tokens.Redis.Addr)
	}
	if cfg.Deletion.SecureWipeEnabled() {
		t.Error("Expected secure wipe disabled")
	}
}

func TestLoad_EnvAliases(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  path: "` + yamlSafePath(tmpDir) + `/blobs"

database:
  type: sqlite
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	masterKey := base64.StdEncoding.EncodeToString(make([]byte, MasterKeySize))

	t.Setenv("STORAGE_PATH", filepath.Join(tmpDir, "elsewhere"))
	t.Setenv("ENCRYPTION_MODE", "encrypted")
	t.Setenv("ENCRYPTION_MASTER_KEY", masterKey)
	t.Setenv("LOCK_EXPIRY_HOURS", "72")
	t.Setenv("DOWNLOAD_TOKEN_EXPIRY_SECONDS", "600")
	t.Setenv("SECURE_DELETE_ENABLED", "false")
	t.Setenv("AUDIT_RETENTION_YEARS", "10")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Storage.Path != filepath.Join(tmpDir, "elsewhere") {
		t.Errorf("Expected STORAGE_PATH to win, got %q", cfg.Storage.Path)
	}
	if cfg.Encryption.Mode != EncryptionModeEncrypted {
		t.Errorf("Expected ENCRYPTION_MODE to win, got %q", cfg.Encryption.Mode)
	}
	if cfg.Locks.Expiry != 72*time.Hour {
		t.Errorf("Expected lock expiry 72h from LOCK_EXPIRY_HOURS, got %v", cfg.Locks.Expiry)
	}
	if cfg.Tokens.TTL != 600*time.Second {
		t.Errorf("Expected token TTL 600s from DOWNLOAD_TOKEN_EXPIRY_SECONDS, got %v", cfg.Tokens.TTL)
	}
	if cfg.Deletion.SecureWipeEnabled() {
		t.Error("Expected SECURE_DELETE_ENABLED=false to win")
	}
	if cfg.Audit.RetentionYears != 10 {
		t.Errorf("Expected retention 10 years from AUDIT_RETENTION_YEARS, got %d", cfg.Audit.RetentionYears)
	}
}

func TestLoad_ZeroLockExpiryFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  type: sqlite
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("LOCK_EXPIRY_HOURS", "0")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Zero is a meaningful setting (locks lapse the moment they are
	// taken), not an unset field to be defaulted.
	if cfg.Locks.Expiry != 0 {
		t.Errorf("Expected explicit zero lock expiry to survive, got %v", cfg.Locks.Expiry)
	}
}

func TestLoad_EncryptedModeRequiresKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  path: "` + yamlSafePath(tmpDir) + `/blobs"

encryption:
  mode: encrypted

database:
  type: sqlite
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected load to fail without a master key")
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	// Secrets live in this file; it must not be world-readable.
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Encryption.Mode != cfg.Encryption.Mode {
		t.Errorf("Roundtrip changed encryption mode: %q != %q", loaded.Encryption.Mode, cfg.Encryption.Mode)
	}
	if loaded.Locks.Expiry != cfg.Locks.Expiry {
		t.Errorf("Roundtrip changed lock expiry: %v != %v", loaded.Locks.Expiry, cfg.Locks.Expiry)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	if _, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for a missing config file")
	}
}
