package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single URL download.
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxFetchBytes caps how much of a remote document is read.
	DefaultMaxFetchBytes = 10 << 20 // 10 MiB
)

// Fetcher downloads remote documents over HTTP for ingestion.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher with default timeout and size limits.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: DefaultFetchTimeout},
		maxBytes: DefaultMaxFetchBytes,
	}
}

// Fetch downloads the document at rawURL and returns its body as a string.
// Only http and https URLs are accepted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
