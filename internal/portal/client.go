// Package portal provides the cookie-bearing HTTP client used for every
// request against the portal and its settings API. One cookie jar lives for
// the duration of the process run; the session it accumulates is owned by
// whoever constructs the client, never ambient package state.
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client wraps two http.Clients sharing one cookie jar: a redirect-following
// client for ordinary page loads and a non-following client for calls whose
// raw status and Location header carry meaning (session probe, login).
type Client struct {
	httpClient *http.Client
	noRedirect *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
	userAgent  string
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Location returns the response Location header, or "" when absent.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
		c.noRedirect.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Non-positive values keep the
// default.
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// New creates a portal client with a fresh, empty cookie jar.
func New(opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
		noRedirect: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Get performs a GET request, following redirects.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, c.httpClient, http.MethodGet, url, "", headers)
}

// GetNoRedirect performs a GET request without following redirects, so the
// caller can observe the raw status and Location header.
func (c *Client) GetNoRedirect(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, c.noRedirect, http.MethodGet, url, "", headers)
}

// PostForm performs a form POST without following redirects. The body is
// sent verbatim; callers are responsible for its encoding.
func (c *Client) PostForm(ctx context.Context, url string, body string, headers map[string]string) (*Response, error) {
	return c.do(ctx, c.noRedirect, http.MethodPost, url, body, headers)
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, method, url, body string, headers map[string]string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", url).
			Msg("Portal request")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", url).
			Int("status_code", resp.StatusCode).
			Int("body_size", len(data)).
			Msg("Portal response")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
