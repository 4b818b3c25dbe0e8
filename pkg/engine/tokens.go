package engine

import (
	"context"

	"github.com/hubvault/hubvault/pkg/audit"
	"github.com/hubvault/hubvault/pkg/token"
)

// IssuedDownload is a token plus the URL that redeems it.
type IssuedDownload struct {
	Token *token.IssuedToken
	URL   string
}

// CreateDownloadToken issues a single-use download ticket for a file
// version after a membership check. A nil version means the current one.
func (e *Engine) CreateDownloadToken(ctx context.Context, fileID, userID string, version *int32, meta audit.RequestMeta) (*IssuedDownload, error) {
	file, err := e.loadFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := e.requireProjectMember(ctx, userID, file, meta); err != nil {
		return nil, err
	}

	issued, err := e.tokens.CreateToken(ctx, userID, fileID, version)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordTokenIssued()
	}
	return &IssuedDownload{
		Token: issued,
		URL:   token.DownloadURL(e.cfg.BaseURL, issued.Token),
	}, nil
}

// Download redeems a ticket and opens the content stream. No membership
// check runs here: the ticket itself is the authorization, bound to the
// user it was issued to and dead after one use.
func (e *Engine) Download(ctx context.Context, tok, userID string, meta audit.RequestMeta) (*token.DownloadStream, error) {
	stream, err := e.tokens.Download(ctx, tok, userID, meta)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordDownload(stream.Size)
	}
	return stream, nil
}

// DownloadByLink redeems a ticket presented over HTTP, where the link
// itself is the credential. The stream and audit trail are attributed to
// the user the ticket was issued to.
func (e *Engine) DownloadByLink(ctx context.Context, tok string, meta audit.RequestMeta) (*token.DownloadStream, error) {
	stream, err := e.tokens.DownloadBearer(ctx, tok, meta)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordDownload(stream.Size)
	}
	return stream, nil
}

// RevokeToken withdraws an unredeemed ticket.
func (e *Engine) RevokeToken(ctx context.Context, tok, userID string) error {
	return e.tokens.Revoke(ctx, tok, userID)
}
