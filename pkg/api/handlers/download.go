package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hubvault/hubvault/internal/logger"
	"github.com/hubvault/hubvault/pkg/engine"
)

// DownloadHandler serves single-use download links.
type DownloadHandler struct {
	engine *engine.Engine
}

// NewDownloadHandler creates the download handler.
func NewDownloadHandler(e *engine.Engine) *DownloadHandler {
	return &DownloadHandler{engine: e}
}

// Get streams the content a ticket names. The link is the credential: no
// other authentication applies, and the ticket dies on first use.
func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	if tok == "" {
		writeBadRequest(w, "missing download token")
		return
	}

	stream, err := h.engine.DownloadByLink(r.Context(), tok, requestMeta(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	defer stream.Close()

	mimeType := stream.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", stream.FileName))
	if stream.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatUint(stream.Size, 10))
	}

	if _, err := io.Copy(w, stream); err != nil {
		// Headers are out; nothing left to do but note the broken pipe.
		logger.Warn("download stream interrupted",
			logger.Filename(stream.FileName), logger.Err(err))
	}
}
