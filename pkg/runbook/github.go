package runbook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GitHubClient downloads runbook content over HTTP with optional bearer
// authentication and a response size cap.
type GitHubClient struct {
	httpClient *http.Client
	token      string
	maxBytes   int64
}

// NewGitHubClient creates a download client. token may be empty (public
// repositories only, lower rate limits). maxBytes bounds the accepted body.
func NewGitHubClient(token string, maxBytes int64) *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		maxBytes:   maxBytes,
	}
}

// DownloadContent fetches raw content from a URL. GitHub blob URLs are
// converted to raw.githubusercontent.com form first.
func (c *GitHubClient) DownloadContent(ctx context.Context, rawURL string) (string, error) {
	downloadURL := ConvertToRawURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch runbook from %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub returned HTTP %d for %s", resp.StatusCode, downloadURL)
	}

	// Read one byte past the cap so oversized bodies are detected without
	// buffering them whole.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return "", fmt.Errorf("runbook exceeds maximum size of %d bytes", c.maxBytes)
	}

	return string(body), nil
}
