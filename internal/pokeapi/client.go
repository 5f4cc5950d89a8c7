package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Catalog defines the remote operations the browser core depends on.
// This interface is implemented by *Client and can be used for testing.
type Catalog interface {
	FetchList(ctx context.Context, limit, offset int) (ListPage, error)
	FetchDetail(ctx context.Context, detailURL string) (Record, error)
}

// Pinger reports whether the remote API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ensure Client implements Catalog and Pinger at compile time.
var (
	_ Catalog = (*Client)(nil)
	_ Pinger  = (*Client)(nil)
)

// Client talks to the PokéAPI pokemon endpoints.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	details   singleflight.Group
}

const (
	DefaultBaseURL   = "https://pokeapi.co/api/v2/pokemon"
	defaultUserAgent = "dex/0.1"
	requestTimeout   = 10 * time.Second
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.URL, e.Code)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit paces outbound requests. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client rooted at the pokemon list endpoint.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the list endpoint the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchList retrieves one page of summaries.
func (c *Client) FetchList(ctx context.Context, limit, offset int) (ListPage, error) {
	if c == nil {
		return ListPage{}, fmt.Errorf("client is nil")
	}
	if limit <= 0 {
		return ListPage{}, fmt.Errorf("limit must be positive")
	}
	if offset < 0 {
		offset = 0
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(offset))

	reqURL := *c.baseURL
	reqURL.RawQuery = values.Encode()

	var payload ListPage
	if err := c.doURL(ctx, http.MethodGet, reqURL.String(), &payload); err != nil {
		return ListPage{}, err
	}
	return payload, nil
}

// FetchDetail resolves a summary URL into a full record. Concurrent calls for
// the same URL share a single request. The shared request is detached from
// any one caller's cancellation and bounded by the client timeout; each
// caller stops waiting when its own ctx is done.
func (c *Client) FetchDetail(ctx context.Context, detailURL string) (Record, error) {
	if c == nil {
		return Record{}, fmt.Errorf("client is nil")
	}
	detailURL = strings.TrimSpace(detailURL)
	if detailURL == "" {
		return Record{}, fmt.Errorf("detail url required")
	}
	ch := c.details.DoChan(detailURL, func() (any, error) {
		shared, cancel := c.sharedContext(ctx)
		defer cancel()
		var rec Record
		if err := c.doURL(shared, http.MethodGet, detailURL, &rec); err != nil {
			return Record{}, err
		}
		return rec, nil
	})
	select {
	case <-ctx.Done():
		return Record{}, fmt.Errorf("fetch detail %s: %w", detailURL, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	}
}

// sharedContext keeps ctx's values but not its cancellation, bounded by the
// HTTP client timeout.
func (c *Client) sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	timeout := c.http.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return context.WithTimeout(detached, timeout)
}

// Ping issues the smallest possible list request.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchList(ctx, 1, 0)
	return err
}

func (c *Client) doURL(ctx context.Context, method, target string, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: target, Code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
