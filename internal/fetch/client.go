package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"epgmerge/internal/services"
)

// Cache stores response bodies keyed by URL along with their HTTP validators.
// Implementations return (nil, nil) from Lookup when no entry exists.
type Cache interface {
	Lookup(ctx context.Context, url string) (*CachedResponse, error)
	Store(ctx context.Context, url, etag, lastModified string, body []byte) error
}

// CachedResponse is a previously stored payload with its validators.
type CachedResponse struct {
	ETag         string
	LastModified string
	Body         []byte
}

// ErrorKind classifies fetch failures.
type ErrorKind int

const (
	// KindTransport covers timeouts, refused connections, and DNS failures.
	KindTransport ErrorKind = iota
	// KindStatus covers responses with a non-success HTTP status.
	KindStatus
)

// Error describes a failed fetch for one source URL.
type Error struct {
	Kind   ErrorKind
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client downloads source payloads with a fixed per-request timeout.
type Client struct {
	http      *http.Client
	userAgent string
	cache     Cache
}

// Option configures a Client.
type Option func(*Client)

// WithCache attaches a conditional-request cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient builds a fetch client. A non-positive timeout falls back to 30s.
func NewClient(timeout time.Duration, userAgent string, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the raw bytes at url. Non-2xx responses and transport
// failures are both reported as a *Error wrapped in services.ErrTransport.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "fetch", "request", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var cached *CachedResponse
	if c.cache != nil {
		cached, err = c.cache.Lookup(ctx, url)
		if err != nil {
			// A broken cache must not fail the download.
			cached = nil
		}
		if cached != nil {
			if cached.ETag != "" {
				req.Header.Set("If-None-Match", cached.ETag)
			}
			if cached.LastModified != "" {
				req.Header.Set("If-Modified-Since", cached.LastModified)
			}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ferr := &Error{Kind: KindTransport, URL: url, Err: err}
		return nil, services.Wrap(services.ErrTransport, "fetch", "get", url, ferr)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return cached.Body, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ferr := &Error{Kind: KindStatus, URL: url, Status: resp.StatusCode}
		return nil, services.Wrap(services.ErrTransport, "fetch", "get", url, ferr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ferr := &Error{Kind: KindTransport, URL: url, Err: err}
		return nil, services.Wrap(services.ErrTransport, "fetch", "read", url, ferr)
	}

	if c.cache != nil {
		etag := resp.Header.Get("ETag")
		lastModified := resp.Header.Get("Last-Modified")
		if etag != "" || lastModified != "" {
			_ = c.cache.Store(ctx, url, etag, lastModified, body)
		}
	}

	return body, nil
}
