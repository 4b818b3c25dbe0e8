package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
)

// Download is an open content stream. The caller owns Body and must close
// it.
type Download struct {
	Body     io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

// Download redeems a single-use download token and opens the content
// stream. The link is the credential; no bearer token is attached. A
// dedicated client without an overall timeout carries the stream, so large
// files are not cut off mid-transfer.
func (c *Client) Download(token string) (*Download, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/download/"+token, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			env.Error.StatusCode = resp.StatusCode
			return nil, env.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	dl := &Download{
		Body:     resp.Body,
		MimeType: resp.Header.Get("Content-Type"),
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			dl.FileName = params["filename"]
		}
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			dl.Size = n
		}
	}
	return dl, nil
}

// streamClient carries downloads; no Timeout so streams of any size
// complete.
var streamClient = &http.Client{}
