// Package fetch retrieves feed sources over HTTP and merges them into the
// per-cycle latest snapshot.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/feed"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single source fetch, including the body read.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 16 << 20

// userAgent identifies feedline to feed servers.
const userAgent = "feedline/1.0 (+https://github.com/abelbrown/feedline)"

// Fetcher retrieves and parses one source at a time. Safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter // spaces out request starts across all sources
}

// NewFetcher creates a Fetcher whose requests time out after timeout.
// A non-positive timeout uses DefaultTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 4),
	}
}

// Fetch performs an HTTP GET on source and parses the body as a feed.
// Returns a transport error for connection failures and non-200 responses,
// and a parse error when the body is not a recognized feed.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]article.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := f.get(ctx, source)
	if err != nil {
		return nil, err
	}
	return feed.Parse(source, body)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response exceeds %d bytes", maxBodySize)
	}
	return body, nil
}
