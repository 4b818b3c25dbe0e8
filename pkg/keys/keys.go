// Package keys derives per-project encryption keys from a single master key
// using HKDF with HMAC-SHA256.
//
// Each project gets its own 256-bit AES key so that a compromised project key
// exposes only that project's content. Derivation is deterministic: the same
// master key and project ID always yield the same key, so nothing derived is
// ever cached or persisted.
//
// Reference: [RFC 5869] HMAC-based Extract-and-Expand Key Derivation Function.
package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MasterKeySize is the required master key length in bytes.
const MasterKeySize = 32

// ProjectKeySize is the length of every derived project key in bytes.
const ProjectKeySize = 32

// keyInfo is the HKDF info string binding derived keys to their purpose.
// Changing it would silently re-key every project, so it never changes.
var keyInfo = []byte("file-encryption")

// Keyring derives project keys from a master key. The zero value is not
// usable; construct with NewKeyring or KeyringFromBase64.
type Keyring struct {
	master []byte
}

// NewKeyring creates a keyring from a raw 32-byte master key. The key is
// copied, so the caller may zero its slice afterwards.
func NewKeyring(master []byte) (*Keyring, error) {
	if len(master) != MasterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", MasterKeySize, len(master))
	}

	k := &Keyring{master: make([]byte, MasterKeySize)}
	copy(k.master, master)
	return k, nil
}

// KeyringFromBase64 creates a keyring from a standard-base64 encoded master
// key, as carried in configuration and environment variables.
func KeyringFromBase64(encoded string) (*Keyring, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("master key is not valid base64: %w", err)
	}
	return NewKeyring(raw)
}

// ProjectKey derives the 256-bit encryption key for a project.
//
// HKDF-SHA256 with salt = the project ID bytes and info = "file-encryption".
// The project ID acts as the salt rather than the info field so that the
// extract step already mixes in the project identity.
func (k *Keyring) ProjectKey(projectID string) ([]byte, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project ID must not be empty")
	}

	r := hkdf.New(sha256.New, k.master, []byte(projectID), keyInfo)

	key := make([]byte, ProjectKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving project key: %w", err)
	}
	return key, nil
}
