package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	uploadFilePath = "/upload/file"
	uploadJSONPath = "/upload/json"

	fileNameHeader = "X-File-Name"
)

// HTTPUploader uploads files through a bundler upload node that returns
// permanent Arweave URIs.
type HTTPUploader struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")

	return &HTTPUploader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// UploadImage uploads raw image bytes and returns their URI.
func (u *HTTPUploader) UploadImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image %q is empty", name)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	log.Printf("[arweave]: uploading image %s (%d bytes, %s)", name, len(data), contentType)

	uri, err := u.post(ctx, uploadFilePath, contentType, name, data)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return uri, nil
}

// UploadJSON uploads an encoded JSON document, normally NFT metadata.
func (u *HTTPUploader) UploadJSON(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("metadata JSON is empty")
	}
	log.Printf("[arweave]: uploading metadata (%d bytes)", len(data))

	uri, err := u.post(ctx, uploadJSONPath, "application/json", "", data)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	return uri, nil
}

func (u *HTTPUploader) post(ctx context.Context, path, contentType, name string, body []byte) (string, error) {
	if u.baseURL == "" {
		return "", fmt.Errorf("storage endpoint is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if name != "" {
		req.Header.Set(fileNameHeader, name)
	}
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[arweave]: %s failed status=%d body=%s", path, resp.StatusCode, respBody)
		return "", fmt.Errorf("status=%d body=%s", resp.StatusCode, respBody)
	}

	var res struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(respBody, &res); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if res.URI == "" {
		return "", fmt.Errorf("upload response has empty uri")
	}

	log.Printf("[arweave]: uploaded %s", res.URI)
	return res.URI, nil
}
