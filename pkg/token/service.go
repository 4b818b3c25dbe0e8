package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/audit"
	vaulterrors "github.com/hubvault/hubvault/pkg/engine/errors"
	"github.com/hubvault/hubvault/pkg/models"
	"github.com/hubvault/hubvault/pkg/store"
)

// DefaultTTL is how long an unredeemed ticket stays valid.
const DefaultTTL = 5 * time.Minute

// keyPrefix namespaces ticket keys in the shared key-value store.
const keyPrefix = "download:"

// tokenBytes of entropy per ticket, rendered as twice as many hex digits.
const tokenBytes = 32

// nowFunc returns the current time (allows mocking in tests).
var nowFunc = time.Now

// ContentSource is the slice of the content layer downloads need.
type ContentSource interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Open(ctx context.Context, hash, projectID string) (io.ReadCloser, error)

	// PlaintextSize maps the stored blob size to the byte count Open
	// yields. Encrypted backends store an envelope larger than the
	// plaintext, and the stream size must describe the stream.
	PlaintextSize(stored uint64) uint64
}

// Payload is the ticket value stored in the key-value store. Field names
// are part of the stored format; changing them invalidates live tickets.
type Payload struct {
	Token         string    `json:"token"`
	UserID        string    `json:"userId"`
	FileID        string    `json:"fileId"`
	VersionNumber int32     `json:"versionNumber"`
	ProjectID     string    `json:"projectId"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	ContentHash   string    `json:"contentHash"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	Used          bool      `json:"used"`
}

// IssuedToken is the result of CreateToken.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	Payload   Payload
}

// DownloadStream carries the decrypted content plus the response metadata
// the transport needs. The caller owns the stream and must close it.
type DownloadStream struct {
	io.ReadCloser
	FileName string
	MimeType string
	Size     uint64
}

// Service issues, redeems and revokes download tickets.
type Service struct {
	store   *store.Store
	tokens  Store
	content ContentSource
	audit   *audit.Recorder
	ttl     time.Duration
}

// NewService creates the ticket service. A zero or negative ttl falls back
// to DefaultTTL: the backends disagree on what a zero TTL means (Badger
// expires immediately, Redis never), and a ticket that cannot expire must
// not exist.
func NewService(s *store.Store, tokens Store, content ContentSource, recorder *audit.Recorder, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:   s,
		tokens:  tokens,
		content: content,
		audit:   recorder,
		ttl:     ttl,
	}
}

// TTL returns the configured ticket lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// DownloadURL assembles the public URL that redeems a ticket.
func DownloadURL(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/api/download/" + token
}

// tokenPrefix returns the first eight characters of a token, enough to
// correlate log and audit lines without exposing the credential.
func tokenPrefix(tok string) string {
	if len(tok) > 8 {
		return tok[:8]
	}
	return tok
}

// CreateToken issues a single-use ticket for one version of a file. A nil
// version means the file's current version. The requested version must
// exist at issue time; expiry after issue is a property of the ticket, not
// of the file.
func (s *Service) CreateToken(ctx context.Context, userID, fileID string, version *int32) (*IssuedToken, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			return nil, vaulterrors.NewNotFoundError(fileID, "file")
		}
		return nil, fmt.Errorf("loading file %s: %w", fileID, err)
	}

	number := file.CurrentVersion
	if version != nil {
		number = *version
	}
	ver, err := s.store.GetVersion(ctx, fileID, number)
	if err != nil {
		if errors.Is(err, models.ErrVersionNotFound) {
			return nil, vaulterrors.NewVersionNotFoundError(fileID, number)
		}
		return nil, fmt.Errorf("loading version %d of file %s: %w", number, fileID, err)
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}
	tok := hex.EncodeToString(raw)

	now := nowFunc().UTC()
	payload := Payload{
		Token:         tok,
		UserID:        userID,
		FileID:        fileID,
		VersionNumber: number,
		ProjectID:     file.ProjectID,
		FileName:      file.Name,
		MimeType:      file.MimeType,
		ContentHash:   ver.ContentHash,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding token payload: %w", err)
	}
	if err := s.tokens.Put(ctx, keyPrefix+tok, value, s.ttl); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		Kind:        audit.EventTokenCreated,
		Outcome:     audit.OutcomeSuccess,
		UserID:      userID,
		ProjectID:   file.ProjectID,
		FileID:      fileID,
		FileVersion: number,
		Details:     map[string]any{"token_prefix": tokenPrefix(tok), "file_name": file.Name},
	})
	logger.DebugCtx(ctx, "download token issued",
		logger.TokenPrefix(tok),
		logger.File(fileID),
		logger.Version(number))

	return &IssuedToken{Token: tok, ExpiresAt: payload.ExpiresAt, Payload: payload}, nil
}

// Consume redeems a ticket. The key delete is the commit point: when
// several callers redeem the same ticket concurrently, the store grants the
// delete to exactly one of them and the rest get TokenExpired, the same
// answer a genuinely expired ticket gives.
func (s *Service) Consume(ctx context.Context, tok, userID string, meta audit.RequestMeta) (*Payload, error) {
	key := keyPrefix + tok

	value, err := s.tokens.Get(ctx, key)
	if errors.Is(err, ErrTokenNotFound) {
		s.recordExpired(ctx, tok, userID, meta)
		return nil, vaulterrors.NewTokenExpiredError()
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(value, &payload); err != nil {
		return nil, vaulterrors.NewInternalError("token payload is not valid JSON", err)
	}

	if payload.Used {
		s.audit.Record(ctx, audit.Event{
			Kind:      audit.EventTokenUsed,
			Outcome:   audit.OutcomeDenied,
			UserID:    userID,
			ProjectID: payload.ProjectID,
			FileID:    payload.FileID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Details:   map[string]any{"reason": "token already used"},
		})
		return nil, vaulterrors.NewTokenAlreadyUsedError(payload.FileID)
	}

	if payload.UserID != userID {
		s.audit.Record(ctx, audit.Event{
			Kind:      audit.EventAccessDenied,
			Outcome:   audit.OutcomeDenied,
			UserID:    userID,
			ProjectID: payload.ProjectID,
			FileID:    payload.FileID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Details:   map[string]any{"reason": "token issued to another user"},
		})
		return nil, vaulterrors.NewTokenUserMismatchError(payload.FileID, userID)
	}

	deleted, err := s.tokens.Del(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("consuming token: %w", err)
	}
	if !deleted {
		// Someone else consumed it, or the TTL ran out, between our read
		// and our delete.
		s.recordExpired(ctx, tok, userID, meta)
		return nil, vaulterrors.NewTokenExpiredError()
	}

	s.audit.Record(ctx, audit.Event{
		Kind:        audit.EventTokenUsed,
		Outcome:     audit.OutcomeSuccess,
		UserID:      userID,
		ProjectID:   payload.ProjectID,
		FileID:      payload.FileID,
		FileVersion: payload.VersionNumber,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
	})
	return &payload, nil
}

// Download redeems a ticket and opens the content it names.
func (s *Service) Download(ctx context.Context, tok, userID string, meta audit.RequestMeta) (*DownloadStream, error) {
	payload, err := s.Consume(ctx, tok, userID, meta)
	if err != nil {
		return nil, err
	}

	exists, err := s.content.Exists(ctx, payload.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("checking blob %s: %w", payload.ContentHash, err)
	}
	if !exists {
		// A valid ticket pointing at a missing blob means metadata and
		// content storage disagree. Loudly auditable.
		s.audit.Record(ctx, audit.Event{
			Kind:        audit.EventFileDownload,
			Outcome:     audit.OutcomeFailure,
			UserID:      userID,
			ProjectID:   payload.ProjectID,
			FileID:      payload.FileID,
			FileVersion: payload.VersionNumber,
			IP:          meta.IP,
			UserAgent:   meta.UserAgent,
			Details:     map[string]any{"reason": "content blob missing", "content_hash": payload.ContentHash},
		})
		logger.ErrorCtx(ctx, "content blob missing for valid download token",
			logger.File(payload.FileID),
			logger.Version(payload.VersionNumber),
			logger.Hash(payload.ContentHash))
		return nil, vaulterrors.NewStorageInconsistentError(payload.FileID, payload.ContentHash)
	}

	ver, err := s.store.GetVersion(ctx, payload.FileID, payload.VersionNumber)
	if err != nil {
		if errors.Is(err, models.ErrVersionNotFound) {
			return nil, vaulterrors.NewVersionNotFoundError(payload.FileID, payload.VersionNumber)
		}
		return nil, fmt.Errorf("loading version %d of file %s: %w", payload.VersionNumber, payload.FileID, err)
	}

	rc, err := s.content.Open(ctx, payload.ContentHash, payload.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("opening blob %s: %w", payload.ContentHash, err)
	}

	// The version row records what sits on disk; the client receives the
	// decrypted bytes.
	size := s.content.PlaintextSize(ver.SizeBytes)

	s.audit.Record(ctx, audit.Event{
		Kind:        audit.EventFileDownload,
		Outcome:     audit.OutcomeSuccess,
		UserID:      userID,
		ProjectID:   payload.ProjectID,
		FileID:      payload.FileID,
		FileVersion: payload.VersionNumber,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Details:     map[string]any{"file_name": payload.FileName, "size_bytes": size},
	})
	logger.InfoCtx(ctx, "file downloaded",
		logger.File(payload.FileID),
		logger.Filename(payload.FileName),
		logger.Version(payload.VersionNumber),
		logger.Size(size))

	return &DownloadStream{
		ReadCloser: rc,
		FileName:   payload.FileName,
		MimeType:   payload.MimeType,
		Size:       size,
	}, nil
}

// DownloadBearer redeems a ticket by possession alone. Download links are
// delivered privately to the user they were issued to, so holding the
// link stands in for identity; the redemption is attributed to the issued
// user. An unknown or spent ticket gives TokenExpired either way.
func (s *Service) DownloadBearer(ctx context.Context, tok string, meta audit.RequestMeta) (*DownloadStream, error) {
	value, err := s.tokens.Get(ctx, keyPrefix+tok)
	if errors.Is(err, ErrTokenNotFound) {
		s.recordExpired(ctx, tok, "", meta)
		return nil, vaulterrors.NewTokenExpiredError()
	}
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(value, &payload); err != nil {
		return nil, vaulterrors.NewInternalError("token payload is not valid JSON", err)
	}

	return s.Download(ctx, tok, payload.UserID, meta)
}

// Revoke withdraws an unredeemed ticket before it expires. Only the user
// the ticket was issued to may revoke it.
func (s *Service) Revoke(ctx context.Context, tok, userID string) error {
	key := keyPrefix + tok

	value, err := s.tokens.Get(ctx, key)
	if errors.Is(err, ErrTokenNotFound) {
		return vaulterrors.NewTokenExpiredError()
	}
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(value, &payload); err != nil {
		return vaulterrors.NewInternalError("token payload is not valid JSON", err)
	}
	if payload.UserID != userID {
		return vaulterrors.NewTokenUserMismatchError(payload.FileID, userID)
	}

	if _, err := s.tokens.Del(ctx, key); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		Kind:      audit.EventTokenExpired,
		Outcome:   audit.OutcomeSuccess,
		UserID:    userID,
		ProjectID: payload.ProjectID,
		FileID:    payload.FileID,
		Details:   map[string]any{"reason": "revoked by owner", "token_prefix": tokenPrefix(tok)},
	})
	logger.InfoCtx(ctx, "download token revoked",
		logger.TokenPrefix(tok),
		logger.File(payload.FileID))
	return nil
}

// recordExpired audits a redemption attempt against a dead ticket.
func (s *Service) recordExpired(ctx context.Context, tok, userID string, meta audit.RequestMeta) {
	s.audit.Record(ctx, audit.Event{
		Kind:      audit.EventTokenExpired,
		Outcome:   audit.OutcomeDenied,
		UserID:    userID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"token_prefix": tokenPrefix(tok)},
	})
}
