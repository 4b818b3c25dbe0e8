//go:build integration

package content

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/keys"
)

func newTestEncryptedStore(t *testing.T) *EncryptedStore {
	t.Helper()

	plain := newTestStore(t)

	master := make([]byte, keys.MasterKeySize)
	for i := range master {
		master[i] = byte(i * 7)
	}
	keyring, err := keys.NewKeyring(master)
	if err != nil {
		t.Fatalf("NewKeyring failed: %v", err)
	}

	return NewEncryptedStore(plain, keyring)
}

func TestEncrypted_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	plaintext := []byte("secret project document")
	hash, size, err := s.Put(ctx, writeSource(t, plaintext), "proj-1")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if size != uint64(len(plaintext)+EnvelopeOverhead) {
		t.Errorf("envelope size is %d, want plaintext %d + overhead %d", size, len(plaintext), EnvelopeOverhead)
	}

	got, err := s.Retrieve(ctx, hash, "proj-1")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("Retrieve returned %q, want %q", got, plaintext)
	}
}

func TestEncrypted_BlobIsNotPlaintext(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	plaintext := []byte("nothing readable on disk")
	hash, _, err := s.Put(ctx, writeSource(t, plaintext), "proj-1")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	envelope, err := os.ReadFile(s.Plain().BlobPath(hash))
	if err != nil {
		t.Fatalf("reading envelope: %v", err)
	}
	if len(envelope) != len(plaintext)+EnvelopeOverhead {
		t.Errorf("envelope is %d bytes, want %d", len(envelope), len(plaintext)+EnvelopeOverhead)
	}

	// The ciphertext section must not carry the plaintext verbatim.
	body := envelope[IVSize : len(envelope)-TagSize]
	if string(body) == string(plaintext) {
		t.Error("envelope body equals plaintext; content was not encrypted")
	}
}

func TestEncrypted_WrongProjectKeyFailsClosed(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	hash, _, err := s.Put(ctx, writeSource(t, []byte("tenant isolated")), "proj-1")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, err = s.Retrieve(ctx, hash, "proj-2")
	if vaulterrors.CodeOf(err) != vaulterrors.ErrCorruptedContent {
		t.Errorf("Retrieve with the wrong project returned %v, want a corrupted-content error", err)
	}
}

func TestEncrypted_TamperedEnvelopeFailsClosed(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	hash, _, err := s.Put(ctx, writeSource(t, []byte("tamper target")), "proj-1")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	blobPath := s.Plain().BlobPath(hash)
	envelope, err := os.ReadFile(blobPath)
	if err != nil {
		t.Fatal(err)
	}
	envelope[IVSize] ^= 0xFF
	if err := os.WriteFile(blobPath, envelope, 0644); err != nil {
		t.Fatal(err)
	}

	_, err = s.Retrieve(ctx, hash, "proj-1")
	if vaulterrors.CodeOf(err) != vaulterrors.ErrCorruptedContent {
		t.Errorf("Retrieve of a tampered envelope returned %v, want a corrupted-content error", err)
	}
}

func TestEncrypted_TruncatedEnvelopeFailsClosed(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	// Store a blob through the plain layer that is shorter than indexable
	// envelope framing.
	short := filepath.Join(t.TempDir(), "short")
	if err := os.WriteFile(short, []byte("tiny"), 0644); err != nil {
		t.Fatal(err)
	}
	hash, _, err := s.Plain().Put(ctx, short)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Retrieve(ctx, hash, "proj-1")
	if vaulterrors.CodeOf(err) != vaulterrors.ErrCorruptedContent {
		t.Errorf("Retrieve of a truncated envelope returned %v, want a corrupted-content error", err)
	}
}

func TestEncrypted_FreshIVPerStore(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	plaintext := []byte("same bytes stored twice")
	hash1, _, err := s.Put(ctx, writeSource(t, plaintext), "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	hash2, _, err := s.Put(ctx, writeSource(t, plaintext), "proj-1")
	if err != nil {
		t.Fatal(err)
	}

	// Each store draws a fresh IV, so repeated stores of the same plaintext
	// produce distinct envelopes. Both must decrypt.
	if hash1 == hash2 {
		t.Error("two stores produced the same envelope; IV reuse")
	}
	for _, h := range []string{hash1, hash2} {
		got, err := s.Retrieve(ctx, h, "proj-1")
		if err != nil {
			t.Fatalf("Retrieve(%s) failed: %v", h, err)
		}
		if string(got) != string(plaintext) {
			t.Errorf("Retrieve(%s) returned %q, want %q", h, got, plaintext)
		}
	}
}

func TestEncrypted_OpenReturnsPlaintextReader(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	plaintext := []byte("streamed back")
	hash, _, err := s.Put(ctx, writeSource(t, plaintext), "proj-1")
	if err != nil {
		t.Fatal(err)
	}

	rc, err := s.Open(ctx, hash, "proj-1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("Open returned %q, want %q", got, plaintext)
	}
}

func TestEncrypted_PlaintextSizeMatchesReader(t *testing.T) {
	ctx := context.Background()
	s := newTestEncryptedStore(t)

	plaintext := []byte("short")
	hash, size, err := s.Put(ctx, writeSource(t, plaintext), "proj-1")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if got := s.PlaintextSize(size); got != uint64(len(plaintext)) {
		t.Errorf("PlaintextSize(%d) = %d, want %d", size, got, len(plaintext))
	}

	rc, err := s.Open(ctx, hash, "proj-1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if uint64(len(body)) != s.PlaintextSize(size) {
		t.Errorf("reader yielded %d bytes, PlaintextSize says %d", len(body), s.PlaintextSize(size))
	}

	// An undersized envelope cannot hold any plaintext.
	if got := s.PlaintextSize(EnvelopeOverhead - 1); got != 0 {
		t.Errorf("undersized envelope maps to %d, want 0", got)
	}
}
