package content

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/keys"
)

// Envelope framing: IV || ciphertext || tag. The IV is 16 bytes rather than
// GCM's usual 12, so the cipher is instantiated with a matching nonce size.
const (
	// IVSize is the envelope initialization vector length in bytes.
	IVSize = 16

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16

	// EnvelopeOverhead is how many bytes an envelope adds over its plaintext.
	EnvelopeOverhead = IVSize + TagSize
)

// EncryptedStore wraps a plain Store with an AES-256-GCM envelope keyed per
// project.
//
// The content hash is the hash of the ciphertext envelope, not the plaintext.
// Every Put draws a fresh random IV, so the same plaintext stored twice
// yields two distinct envelopes: encrypted mode forfeits deduplication.
type EncryptedStore struct {
	plain   *Store
	keyring *keys.Keyring
}

// NewEncryptedStore wraps plain with per-project envelope encryption.
func NewEncryptedStore(plain *Store, keyring *keys.Keyring) *EncryptedStore {
	return &EncryptedStore{plain: plain, keyring: keyring}
}

// Plain returns the underlying store. Blob-level operations that act on the
// envelope bytes, deletion and stats among them, go through the plain store.
func (s *EncryptedStore) Plain() *Store {
	return s.plain
}

// Exists reports whether the envelope for hash is present. Presence needs no
// key, so this is a straight passthrough.
func (s *EncryptedStore) Exists(ctx context.Context, hash string) (bool, error) {
	return s.plain.Exists(ctx, hash)
}

// BlobPath returns the filesystem path of the envelope for hash. The bytes
// at that path are ciphertext; reading plaintext goes through Retrieve.
func (s *EncryptedStore) BlobPath(hash string) string {
	return s.plain.BlobPath(hash)
}

// PlaintextSize maps an envelope size on disk to the byte count Open
// yields. Sizes below the envelope minimum clamp to zero.
func (s *EncryptedStore) PlaintextSize(stored uint64) uint64 {
	if stored < EnvelopeOverhead {
		return 0
	}
	return stored - EnvelopeOverhead
}

// projectCipher builds the AEAD for a project's derived key.
func (s *EncryptedStore) projectCipher(projectID string) (cipher.AEAD, error) {
	key, err := s.keyring.ProjectKey(projectID)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// Put encrypts the file at sourcePath under the project's key and stores the
// resulting envelope. The returned size is the envelope size on disk, which
// exceeds the plaintext by EnvelopeOverhead bytes.
func (s *EncryptedStore) Put(ctx context.Context, sourcePath, projectID string) (hash string, size uint64, err error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	plaintext, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", 0, fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	gcm, err := s.projectCipher(projectID)
	if err != nil {
		return "", 0, err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", 0, fmt.Errorf("generating IV: %w", err)
	}

	// Seal appends ciphertext and tag after the IV, producing the full
	// envelope in one buffer.
	envelope := gcm.Seal(iv, iv, plaintext, nil)

	tmp, err := os.CreateTemp(s.plain.BasePath(), ".enc-*")
	if err != nil {
		return "", 0, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(envelope); err != nil {
		tmp.Close()
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		return "", 0, err
	}

	return s.plain.Put(ctx, tmpPath)
}

// Retrieve reads the envelope for hash, authenticates it with the project's
// key and returns the plaintext. A tag mismatch means the envelope was
// tampered with or the wrong project key was used; no partial plaintext is
// ever returned.
func (s *EncryptedStore) Retrieve(ctx context.Context, hash, projectID string) ([]byte, error) {
	rc, err := s.plain.Open(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	envelope, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	if len(envelope) < EnvelopeOverhead {
		return nil, vaulterrors.NewCorruptedContentError(hash,
			fmt.Errorf("envelope is %d bytes, below the %d byte minimum", len(envelope), EnvelopeOverhead))
	}

	gcm, err := s.projectCipher(projectID)
	if err != nil {
		return nil, err
	}

	iv := envelope[:IVSize]
	sealed := envelope[IVSize:]

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, vaulterrors.NewCorruptedContentError(hash, err)
	}
	return plaintext, nil
}

// Open authenticates and decrypts the blob, returning a reader over the
// plaintext. Decryption is not streamable, so the plaintext is held in
// memory for the life of the reader.
func (s *EncryptedStore) Open(ctx context.Context, hash, projectID string) (io.ReadCloser, error) {
	plaintext, err := s.Retrieve(ctx, hash, projectID)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(plaintext)), nil
}
