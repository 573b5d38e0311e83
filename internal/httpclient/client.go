package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/everstacklabs/presenter/internal/cache"
)

const defaultTimeout = 30 * time.Second

// Client fetches model listings with rate limiting, caching and conditional revalidation.
type Client struct {
	http      *http.Client
	cache     *cache.FileCache
	limiter   *rate.Limiter
	userAgent string
	noCache   bool
}

// Option configures the Client.
type Option func(*Client)

// WithCache enables the file cache.
func WithCache(c *cache.FileCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(cl *Client) {
		if rps > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithNoCache bypasses the cache for reads and writes.
func WithNoCache() Option {
	return func(cl *Client) { cl.noCache = true }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) { cl.http = hc }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a fetched body and where it came from.
type Response struct {
	Body       []byte
	StatusCode int
	FromCache  bool
}

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

const maxErrorBody = 64

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("HTTP GET %s: status %d: %s", e.URL, e.StatusCode, body)
}

func (c *Client) useCache() bool {
	return c.cache != nil && !c.noCache
}

// Get performs a GET, serving fresh cache hits directly and revalidating stale ones.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	var stale *cache.Entry
	if c.useCache() {
		entry, fresh := c.cache.Get(url)
		if fresh {
			slog.Debug("cache hit", "url", url)
			return &Response{Body: entry.Body, StatusCode: entry.StatusCode, FromCache: true}, nil
		}
		stale = entry
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if stale != nil {
		if stale.ETag != "" {
			req.Header.Set("If-None-Match", stale.ETag)
		}
		if stale.LastMod != "" {
			req.Header.Set("If-Modified-Since", stale.LastMod)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && stale != nil {
		slog.Debug("cache revalidated", "url", url)
		_ = c.cache.Set(url, stale)
		return &Response{Body: stale.Body, StatusCode: stale.StatusCode, FromCache: true}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if c.useCache() {
		if err := c.cache.Set(url, &cache.Entry{
			Body:       body,
			ETag:       resp.Header.Get("ETag"),
			LastMod:    resp.Header.Get("Last-Modified"),
			StatusCode: resp.StatusCode,
		}); err != nil {
			slog.Warn("failed to cache response", "url", url, "error", err)
		}
	}

	return &Response{Body: body, StatusCode: resp.StatusCode}, nil
}
