package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the signed-URL broker in front of the object store.
// Uploads are a two-step flow: obtain a short-lived single-use PUT URL for a
// key, then PUT the bytes directly to the store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicURL  string
}

type brokerResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewClient(baseURL, publicURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// RequestUploadURL asks the broker for a signed PUT URL for key.
func (c *Client) RequestUploadURL(ctx context.Context, key, contentType string) (string, error) {
	body, err := json.Marshal(map[string]string{"key": key, "contentType": contentType})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-url", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out brokerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload-url response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return "", fmt.Errorf("upload-url request failed: status %d: %s", resp.StatusCode, out.Error)
	}
	return out.URL, nil
}

// Upload pushes the file to the store under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, data io.Reader) (string, error) {
	signedURL, err := c.RequestUploadURL(ctx, key, contentType)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, data)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media upload failed: status %d", resp.StatusCode)
	}
	return c.publicURL + "/" + key, nil
}

// DeleteObject removes key from the store. Safe to retry.
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	body, err := json.Marshal(map[string]string{"key": key})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/delete-file", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out brokerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode delete-file response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		return fmt.Errorf("delete-file request failed: status %d: %s", resp.StatusCode, out.Error)
	}
	return nil
}
