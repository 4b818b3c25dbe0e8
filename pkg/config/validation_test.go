package config

import (
	"encoding/base64"
	"strings"
	"testing"
)

func validConfig() *Config {
	return GetDefaultConfig()
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("Expected error for nil config")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestValidate_InvalidEncryptionMode(t *testing.T) {
	cfg := validConfig()
	cfg.Encryption.Mode = "rot13"
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for invalid encryption mode")
	}
}

func TestValidate_EncryptedMode(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr string
	}{
		{
			name:    "missing key",
			key:     "",
			wantErr: "master key is required",
		},
		{
			name:    "not base64",
			key:     "not-valid-base64!!!",
			wantErr: "not valid base64",
		},
		{
			name:    "wrong length",
			key:     base64.StdEncoding.EncodeToString(make([]byte, 16)),
			wantErr: "32 bytes",
		},
		{
			name: "valid 32-byte key",
			key:  base64.StdEncoding.EncodeToString(make([]byte, 32)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Encryption.Mode = EncryptionModeEncrypted
			cfg.Encryption.MasterKey = tt.key

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_InvalidTokenStore(t *testing.T) {
	cfg := validConfig()
	cfg.Tokens.Store = "memcached"
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown token store")
	}
}

func TestValidate_BadgerPathRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Tokens.Badger.Path = ""
	cfg.Tokens.Badger.InMemory = false
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for badger store without a path")
	}

	cfg.Tokens.Badger.InMemory = true
	if err := Validate(cfg); err != nil {
		t.Fatalf("In-memory badger store needs no path: %v", err)
	}
}

func TestValidate_ShortAPISecret(t *testing.T) {
	cfg := validConfig()
	cfg.API.JWT.Secret = "too-short"
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for a JWT secret under 32 characters")
	}

	cfg.API.JWT.Secret = "test-secret-key-for-testing-only-32chars"
	if err := Validate(cfg); err != nil {
		t.Fatalf("32+ character secret should validate: %v", err)
	}
}

func TestValidate_WipeConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.Deletion.WipeConcurrency = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for negative wipe concurrency")
	}
}

func TestMasterKeyBytes(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	enc := EncryptionConfig{
		Mode:      EncryptionModeEncrypted,
		MasterKey: base64.StdEncoding.EncodeToString(raw),
	}

	key, err := enc.MasterKeyBytes()
	if err != nil {
		t.Fatalf("MasterKeyBytes failed: %v", err)
	}
	if len(key) != MasterKeySize {
		t.Errorf("Expected %d bytes, got %d", MasterKeySize, len(key))
	}
	if key[31] != 31 {
		t.Error("Decoded key content mismatch")
	}
}
