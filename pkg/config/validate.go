package config

import (
	"encoding/base64"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MasterKeySize is the required decoded length of the encryption master
// key.
const MasterKeySize = 32

var validate = validator.New()

// Validate checks the configuration for errors. Struct tags cover the
// shape; cross-field rules (encryption key material, database settings)
// are checked explicitly.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Encryption.Mode == EncryptionModeEncrypted {
		key, err := decodeMasterKey(cfg.Encryption.MasterKey)
		if err != nil {
			return fmt.Errorf("encryption: %w", err)
		}
		zero(key)
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if cfg.Tokens.Store == TokenStoreBadger && !cfg.Tokens.Badger.InMemory && cfg.Tokens.Badger.Path == "" {
		return fmt.Errorf("tokens: badger path is required unless in_memory is set")
	}

	if err := cfg.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}

// decodeMasterKey decodes and length-checks the base64 master key.
func decodeMasterKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("master key is required when mode is %q", EncryptionModeEncrypted)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("master key is not valid base64: %w", err)
	}
	if len(key) != MasterKeySize {
		zero(key)
		return nil, fmt.Errorf("master key must decode to %d bytes, got %d", MasterKeySize, len(key))
	}
	return key, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
