package token

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubvault/hubvault/pkg/audit"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// fakeKV is an in-memory token.Store with switches for the failure paths a
// real backend cannot produce on demand.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	lastTTL time.Duration

	// denyDel makes Del report that someone else won the delete race.
	denyDel bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.lastTTL = ttl
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return value, nil
}

func (f *fakeKV) Del(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyDel {
		return false, nil
	}
	if _, ok := f.data[key]; !ok {
		return false, nil
	}
	delete(f.data, key)
	return true, nil
}

func (f *fakeKV) Close() error { return nil }

// fakeContent serves blobs from memory and remembers which project key the
// last open was for. A nonzero overhead mimics an encrypting backend whose
// stored envelopes exceed the plaintext.
type fakeContent struct {
	blobs         map[string][]byte
	openedProject string
	overhead      uint64
}

func (f *fakeContent) Exists(ctx context.Context, hash string) (bool, error) {
	_, ok := f.blobs[hash]
	return ok, nil
}

func (f *fakeContent) Open(ctx context.Context, hash, projectID string) (io.ReadCloser, error) {
	f.openedProject = projectID
	blob, ok := f.blobs[hash]
	if !ok {
		return nil, vaulterrors.NewNotFoundError(hash, "content blob")
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

func (f *fakeContent) PlaintextSize(stored uint64) uint64 {
	if stored < f.overhead {
		return 0
	}
	return stored - f.overhead
}

type fixture struct {
	svc     *Service
	store   *store.Store
	kv      *fakeKV
	content *fakeContent
	file    *models.File
}

// newFixture builds a service over a real metadata store seeded with one
// file that has two versions.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	file := &models.File{
		ProjectID:      "proj-1",
		Name:           "Q3 report.pdf",
		Path:           "/Q3 report.pdf",
		MimeType:       "application/pdf",
		ContentHash:    fakeHash(1),
		SizeBytes:      100,
		CurrentVersion: 1,
	}
	_, err = s.CreateFile(ctx, file)
	require.NoError(t, err)
	for n := int32(1); n <= 2; n++ {
		_, err = s.CreateVersion(ctx, &models.FileVersion{
			FileID:        file.ID,
			VersionNumber: n,
			ContentHash:   fakeHash(int(n)),
			SizeBytes:     uint64(n * 100),
			UploadedBy:    "alice",
		})
		require.NoError(t, err)
	}
	require.NoError(t, s.UpdateFileCurrent(ctx, file.ID, 2, fakeHash(2), 200))
	file.CurrentVersion = 2

	kv := newFakeKV()
	fc := &fakeContent{blobs: map[string][]byte{
		fakeHash(1): []byte("version one"),
		fakeHash(2): []byte("version two"),
	}}
	svc := NewService(s, kv, fc, audit.NewRecorder(s), 5*time.Minute)

	return &fixture{svc: svc, store: s, kv: kv, content: fc, file: file}
}

func fakeHash(n int) string {
	h := fmt.Sprintf("%x", []byte(fmt.Sprintf("blob-%d", n)))
	for len(h) < 64 {
		h += "0"
	}
	return h[:64]
}

func setNow(t *testing.T, at time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = time.Now })
}

func int32Ptr(n int32) *int32 { return &n }

// auditKinds returns the recorded event kinds in order.
func auditKinds(t *testing.T, s *store.Store) []string {
	t.Helper()
	entries, err := s.QueryAuditLogs(context.Background(), store.AuditQuery{})
	require.NoError(t, err)
	kinds := make([]string, len(entries))
	for i, e := range entries {
		kinds[i] = e.EventKind
	}
	return kinds
}

func TestCreateToken(t *testing.T) {
	fx := newFixture(t)
	t0 := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	setNow(t, t0)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), issued.Token)
	assert.Equal(t, t0.Add(5*time.Minute), issued.ExpiresAt)

	p := issued.Payload
	assert.Equal(t, "alice", p.UserID)
	assert.Equal(t, fx.file.ID, p.FileID)
	assert.Equal(t, int32(2), p.VersionNumber)
	assert.Equal(t, "proj-1", p.ProjectID)
	assert.Equal(t, "Q3 report.pdf", p.FileName)
	assert.Equal(t, "application/pdf", p.MimeType)
	assert.Equal(t, fakeHash(2), p.ContentHash)
	assert.False(t, p.Used)

	// Stored under the namespaced key with the configured TTL.
	_, err = fx.kv.Get(ctx, "download:"+issued.Token)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, fx.kv.lastTTL)

	assert.Contains(t, auditKinds(t, fx.store), string(audit.EventTokenCreated))
}

func TestCreateToken_ExplicitVersion(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, int32Ptr(1))
	require.NoError(t, err)
	assert.Equal(t, int32(1), issued.Payload.VersionNumber)
	assert.Equal(t, fakeHash(1), issued.Payload.ContentHash)
}

func TestCreateToken_MissingTargets(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateToken(ctx, "alice", "no-such-file", nil)
	assert.Equal(t, vaulterrors.ErrNotFound, vaulterrors.CodeOf(err))

	_, err = fx.svc.CreateToken(ctx, "alice", fx.file.ID, int32Ptr(9))
	assert.Equal(t, vaulterrors.ErrVersionNotFound, vaulterrors.CodeOf(err))
}

func TestConsume_SingleUse(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	meta := audit.RequestMeta{IP: "10.1.2.3", UserAgent: "hubvaultctl/1.0"}

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	payload, err := fx.svc.Consume(ctx, issued.Token, "alice", meta)
	require.NoError(t, err)
	assert.Equal(t, fx.file.ID, payload.FileID)
	assert.Equal(t, int32(2), payload.VersionNumber)

	// The ticket is gone; redeeming again reads as expired.
	_, err = fx.svc.Consume(ctx, issued.Token, "alice", meta)
	assert.Equal(t, vaulterrors.ErrTokenExpired, vaulterrors.CodeOf(err))

	kinds := auditKinds(t, fx.store)
	assert.Contains(t, kinds, string(audit.EventTokenUsed))
	assert.Contains(t, kinds, string(audit.EventTokenExpired))
}

func TestConsume_UserMismatch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	_, err = fx.svc.Consume(ctx, issued.Token, "bob", audit.RequestMeta{})
	assert.Equal(t, vaulterrors.ErrTokenUserMismatch, vaulterrors.CodeOf(err))

	// The ticket survives a mismatched attempt; the issuee can still use it.
	assert.Contains(t, auditKinds(t, fx.store), string(audit.EventAccessDenied))
	_, err = fx.svc.Consume(ctx, issued.Token, "alice", audit.RequestMeta{})
	require.NoError(t, err)
}

func TestConsume_LostDeleteRace(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	fx.kv.denyDel = true
	_, err = fx.svc.Consume(ctx, issued.Token, "alice", audit.RequestMeta{})
	assert.Equal(t, vaulterrors.ErrTokenExpired, vaulterrors.CodeOf(err))
}

func TestConsume_UnknownToken(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Consume(context.Background(), "feedfacecafebeef", "alice", audit.RequestMeta{})
	assert.Equal(t, vaulterrors.ErrTokenExpired, vaulterrors.CodeOf(err))
}

func TestDownload(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	stream, err := fx.svc.Download(ctx, issued.Token, "alice", audit.RequestMeta{})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, "Q3 report.pdf", stream.FileName)
	assert.Equal(t, "application/pdf", stream.MimeType)
	assert.Equal(t, uint64(200), stream.Size)

	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("version two"), body)

	// Decryption has to use the owning project's key.
	assert.Equal(t, "proj-1", fx.content.openedProject)
	assert.Contains(t, auditKinds(t, fx.store), string(audit.EventFileDownload))
}

func TestDownload_EncryptedSizeMatchesBody(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// The version row holds the envelope size; the stream carries the
	// decrypted plaintext, 32 bytes fewer. Content-Length comes from
	// stream.Size, so the two must agree.
	fx.content.overhead = 32
	fx.content.blobs[fakeHash(2)] = bytes.Repeat([]byte("p"), 200-32)

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	stream, err := fx.svc.Download(ctx, issued.Token, "alice", audit.RequestMeta{})
	require.NoError(t, err)
	defer stream.Close()

	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(body)), stream.Size)
	assert.Equal(t, uint64(168), stream.Size)
}

func TestDownload_MissingBlob(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	delete(fx.content.blobs, fakeHash(2))
	_, err = fx.svc.Download(ctx, issued.Token, "alice", audit.RequestMeta{})
	assert.Equal(t, vaulterrors.ErrStorageInconsistent, vaulterrors.CodeOf(err))

	// The failure is its own audit event.
	entries, qerr := fx.store.QueryAuditLogs(ctx, store.AuditQuery{})
	require.NoError(t, qerr)
	var sawFailure bool
	for _, e := range entries {
		if e.EventKind == string(audit.EventFileDownload) && e.Outcome == string(audit.OutcomeFailure) {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure)
}

func TestRevoke(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	issued, err := fx.svc.CreateToken(ctx, "alice", fx.file.ID, nil)
	require.NoError(t, err)

	t.Run("stranger cannot revoke", func(t *testing.T) {
		err := fx.svc.Revoke(ctx, issued.Token, "bob")
		assert.Equal(t, vaulterrors.ErrTokenUserMismatch, vaulterrors.CodeOf(err))
	})

	t.Run("owner revokes", func(t *testing.T) {
		require.NoError(t, fx.svc.Revoke(ctx, issued.Token, "alice"))
		_, err := fx.svc.Consume(ctx, issued.Token, "alice", audit.RequestMeta{})
		assert.Equal(t, vaulterrors.ErrTokenExpired, vaulterrors.CodeOf(err))
	})

	t.Run("revoking a dead token", func(t *testing.T) {
		err := fx.svc.Revoke(ctx, issued.Token, "alice")
		assert.Equal(t, vaulterrors.ErrTokenExpired, vaulterrors.CodeOf(err))
	})
}

func TestDownloadURL(t *testing.T) {
	assert.Equal(t, "https://vault.example.com/api/download/abc123",
		DownloadURL("https://vault.example.com", "abc123"))
	assert.Equal(t, "https://vault.example.com/api/download/abc123",
		DownloadURL("https://vault.example.com/", "abc123"))
}

func TestServiceTTLFallback(t *testing.T) {
	fx := newFixture(t)
	svc := NewService(fx.store, fx.kv, fx.content, audit.NewRecorder(fx.store), 0)
	assert.Equal(t, DefaultTTL, svc.TTL())
}
