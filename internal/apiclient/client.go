// Package apiclient is the storefront's HTTP client for its own API. One Client is built per process
// from the deployment mode, and every request it sends carries the session cookies it has received.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/models"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single request, including reading the response body.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept on APIError.
const maxErrorBody = 64 << 10

var (
	// ErrNoBaseURL is returned when the selected mode has no API target configured.
	ErrNoBaseURL = errors.New("apiclient: no API base URL configured")
	// ErrAbsolutePath is returned when a request path names its own host.
	ErrAbsolutePath = errors.New("apiclient: request path must be relative to the base URL")
)

// ResolveBaseURL picks the API target for mode. Production never falls back to the development
// target, so a missing API_BASE_URL surfaces as ErrNoBaseURL.
func ResolveBaseURL(mode models.DeploymentMode, targets config.ClientTargets) (string, error) {
	target := targets.Development
	if mode == models.ModeProduction {
		target = targets.Production
	}
	if strings.TrimSpace(target) == "" {
		return "", fmt.Errorf("%w for %s mode", ErrNoBaseURL, mode)
	}
	return target, nil
}

// Client sends credentialed JSON requests to one fixed base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc for transport. A cookie jar is attached to a copy of hc when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			clone := *hc
			c.httpClient = &clone
		}
	}
}

// WithTimeout sets the per-request timeout. It takes precedence over the timeout of a client passed to
// WithHTTPClient; without either, DefaultTimeout applies.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger logs every request at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNoBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base URL %q must be an absolute http(s) URL", baseURL)
	}

	c := &Client{
		baseURL:   u,
		userAgent: "storefront-apiclient",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	switch {
	case c.timeout > 0:
		c.httpClient.Timeout = c.timeout
	case c.httpClient.Timeout == 0:
		c.httpClient.Timeout = DefaultTimeout
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("apiclient: create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// NewForMode resolves the base URL for mode and creates the client.
func NewForMode(mode models.DeploymentMode, targets config.ClientTargets, opts ...Option) (*Client, error) {
	baseURL, err := ResolveBaseURL(mode, targets)
	if err != nil {
		return nil, err
	}
	return New(baseURL, opts...)
}

// BaseURL returns the API target every request is sent to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the cookies the client would send to the base URL.
func (c *Client) Cookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// Get sends a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Patch sends body as JSON and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete sends a DELETE request and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. path is joined onto the base URL and may carry a query string. A non-nil body
// is encoded as JSON. out, when non-nil, receives the decoded JSON response. Responses outside 2xx
// return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	target, err := c.resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("api_request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("apiclient: parse path: %w", err)
	}
	if ref.Scheme != "" || ref.Host != "" {
		return "", ErrAbsolutePath
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return u.String(), nil
}
