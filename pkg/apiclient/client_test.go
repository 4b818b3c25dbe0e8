package apiclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestWithToken(t *testing.T) {
	client := New("http://localhost:8080")
	tokenClient := client.WithToken("test-token")

	assert.Empty(t, client.token)
	assert.Equal(t, "test-token", tokenClient.token)
	assert.Equal(t, "http://localhost:8080", tokenClient.baseURL)
}

func TestSetToken(t *testing.T) {
	client := New("http://localhost:8080")
	client.SetToken("my-token")
	assert.Equal(t, "my-token", client.token)
}

// ok wraps data in the server's response envelope.
func ok(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"data":      data,
	}))
}

func TestGetFile_UnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/files/f-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		ok(t, w, http.StatusOK, File{ID: "f-1", Name: "design.pdf", CurrentVersion: 3})
	}))
	defer server.Close()

	file, err := New(server.URL).WithToken("tok").GetFile("f-1")
	require.NoError(t, err)
	assert.Equal(t, "design.pdf", file.Name)
	assert.Equal(t, int32(3), file.CurrentVersion)
}

func TestCheckout_LockConflict(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "error",
			"error": map[string]any{
				"code":       "Locked",
				"message":    "file is checked out",
				"locked_by":  "alice",
				"expires_at": expires,
			},
		})
	}))
	defer server.Close()

	_, err := New(server.URL).Checkout("f-1", "")
	require.Error(t, err)

	apiErr, isAPIErr := err.(*APIError)
	require.True(t, isAPIErr)
	assert.True(t, apiErr.IsLocked())
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "alice", apiErr.LockedBy)
	require.NotNil(t, apiErr.ExpiresAt)
	assert.Equal(t, expires, apiErr.ExpiresAt.UTC())
}

func TestUploadFile_Multipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p-1/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "first draft", r.FormValue("message"))

		part, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer part.Close()
		assert.Equal(t, "report.pdf", header.Filename)

		data, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.Equal(t, "pdf bytes", string(data))

		ok(t, w, http.StatusCreated, File{ID: "f-9", Name: "report.pdf", CurrentVersion: 1})
	}))
	defer server.Close()

	file, err := New(server.URL).UploadFile("p-1", "report.pdf",
		strings.NewReader("pdf bytes"), UploadOptions{Message: "first draft"})
	require.NoError(t, err)
	assert.Equal(t, "f-9", file.ID)
}

func TestCreateDownloadToken_VersionQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("version"))
		ok(t, w, http.StatusCreated, IssuedDownload{
			Token: &IssuedToken{Token: "abc123"},
			URL:   "https://vault.example.com/api/download/abc123",
		})
	}))
	defer server.Close()

	issued, err := New(server.URL).CreateDownloadToken("f-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "abc123", issued.Token.Token)
	assert.Contains(t, issued.URL, "/api/download/abc123")
}

func TestDownload_StreamsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
		_, _ = w.Write([]byte("pdf bytes"))
	}))
	defer server.Close()

	dl, err := New(server.URL).Download("abc123")
	require.NoError(t, err)
	defer dl.Body.Close()

	assert.Equal(t, "report.pdf", dl.FileName)
	assert.Equal(t, "application/pdf", dl.MimeType)
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestDownload_Gone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "error",
			"error":  map[string]any{"code": "TokenExpired", "message": "link already used"},
		})
	}))
	defer server.Close()

	_, err := New(server.URL).Download("abc123")
	require.Error(t, err)
	apiErr, isAPIErr := err.(*APIError)
	require.True(t, isAPIErr)
	assert.True(t, apiErr.IsExpired())
}

func TestListDeletions_StatusFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FAILED", r.URL.Query().Get("status"))
		ok(t, w, http.StatusOK, []DeletionRecord{{ID: "d-1", Status: "FAILED"}})
	}))
	defer server.Close()

	records, err := New(server.URL).ListDeletions("FAILED")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d-1", records[0].ID)
}

func TestDo_NonEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL).get("/test", nil)
	require.Error(t, err)
	apiErr, isAPIErr := err.(*APIError)
	require.True(t, isAPIErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad gateway")
}
