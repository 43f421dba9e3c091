package psx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	downloadTimeout = 30 * time.Second
	maxDocumentSize = 64 << 20
)

// Fetcher downloads attachment bytes. Failures never propagate: a nil result
// means extraction should be skipped for that announcement.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &Fetcher{client: client, maxSize: maxDocumentSize}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) []byte {
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("Failed to build download request", "url", url, "err", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf,image/*,*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("Download failed", "url", url, "err", err)
		return nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("Failed to close response body", "url", url, "err", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Download returned non-OK status", "url", url, "status", resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		slog.Warn("Failed to read download body", "url", url, "err", err)
		return nil
	}
	if int64(len(data)) > f.maxSize {
		slog.Warn("Download exceeds size limit, skipping", "url", url, "limit", f.maxSize)
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	return data
}
