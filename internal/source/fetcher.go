package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/storage"
)

const acceptHeader = "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml"

// HTTPError is returned for non-success responses. RetryAfter is set for
// 429 and 503 so callers can back off.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("HTTP error: %d (retry after %s)", e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

type Fetcher struct {
	client            *http.Client
	userAgent         string
	defaultRetryAfter time.Duration
	ignoreCache       bool
	now               func() time.Time
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Feed.HTTPTimeout,
		},
		userAgent:         cfg.Feed.UserAgent,
		defaultRetryAfter: cfg.Feed.DefaultRetryAfter,
		now:               time.Now,
	}
}

// SetIgnoreCache makes Fetch skip the conditional request headers.
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch requests the source's feed. The bool is false when the server
// answered 304 Not Modified, in which case the response is nil.
func (f *Fetcher) Fetch(ctx context.Context, src *storage.Source) (*http.Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	if !f.ignoreCache {
		if src.ETag != "" {
			req.Header.Set("If-None-Match", src.ETag)
		}
		if src.LastModified != "" {
			req.Header.Set("If-Modified-Since", src.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching source: %w", err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, false, nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		httpErr := &HTTPError{StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			httpErr.RetryAfter = f.RetryAfter(resp)
		}
		return nil, false, httpErr
	}

	return resp, true, nil
}

func (f *Fetcher) UpdateSourceMetadata(src *storage.Source, resp *http.Response) {
	if etag := resp.Header.Get("ETag"); etag != "" {
		src.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		src.LastModified = lastMod
	}
	src.LastFetched = f.now()
}

// RetryAfter reads the Retry-After header, which is either delay seconds or
// an HTTP date.
func (f *Fetcher) RetryAfter(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return f.defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(f.now()); d > 0 {
			return d
		}
		return 0
	}
	return f.defaultRetryAfter
}
