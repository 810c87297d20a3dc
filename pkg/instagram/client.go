package instagram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"igproxy/pkg/config"
	"igproxy/pkg/errors"
	"igproxy/pkg/logger"
	"igproxy/pkg/ratelimit"
	"igproxy/pkg/retry"
)

// DefaultUserAgent is the desktop browser identity sent upstream
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxBodyBytes caps how much of an upstream response is read
const maxBodyBytes = 8 << 20

// Client fetches public Instagram JSON endpoints
type Client struct {
	httpClient       *http.Client
	headers          map[string]string
	baseURL          string
	profilePostCount int
	pacer            *ratelimit.UpstreamPacer
	retry            *retry.Policy
	logger           logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another host, e.g. a test server
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithPacer spaces upstream requests
func WithPacer(p *ratelimit.UpstreamPacer) Option {
	return func(c *Client) { c.pacer = p }
}

// WithRetryPolicy retries transient upstream failures
func WithRetryPolicy(p *retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithProfilePostCount sets how many timeline posts a profile fetch returns
func WithProfilePostCount(n int) Option {
	return func(c *Client) { c.profilePostCount = n }
}

// NewClient creates a new Instagram client
func NewClient(timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers: map[string]string{
			"User-Agent":      DefaultUserAgent,
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL:          BaseURL,
		profilePostCount: DefaultMediaLimit,
		retry:            retry.NoRetry(),
		logger:           log.WithField("component", "instagram"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig wires a client from the upstream and retry configuration
func NewClientFromConfig(up config.UpstreamConfig, rc config.RetryConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	c := NewClient(up.Timeout, log,
		WithBaseURL(up.BaseURL),
		WithPacer(ratelimit.NewUpstreamPacer(up.RequestsPerMinute, up.Burst)),
		WithRetryPolicy(retry.FromConfig(rc, log)),
		WithProfilePostCount(up.ProfilePostCount),
	)
	if up.UserAgent != "" {
		c.SetHeader("User-Agent", up.UserAgent)
	}
	return c
}

// SetHeader sets a header sent with every upstream request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// GetJSON fetches url and decodes the body into target. Upstream failures are
// reported with failMessage, which is what API clients get to see.
func (c *Client) GetJSON(ctx context.Context, url, failMessage string, target interface{}) error {
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return errors.Wrap(errors.ErrorTypeNetwork, 0, failMessage, err)
		}
		return c.getJSONOnce(ctx, url, failMessage, target)
	})
}

func (c *Client) getJSONOnce(ctx context.Context, url, failMessage string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeUnknown, 0, failMessage, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return errors.Wrap(errors.ErrorTypeNetwork, 0, failMessage, err)
	}
	defer resp.Body.Close()
	logger.LogUpstream(c.logger, url, resp.StatusCode, time.Since(start))

	if err := c.checkResponseStatus(resp, failMessage); err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNetwork, resp.StatusCode, failMessage, err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.Wrap(errors.ErrorTypeParsing, resp.StatusCode, "Unexpected response from Instagram", err)
	}
	return nil
}

// checkResponseStatus classifies non-2xx responses
func (c *Client) checkResponseStatus(resp *http.Response, failMessage string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errType errors.ErrorType
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		errType = errors.ErrorTypeAuth
	case resp.StatusCode == http.StatusNotFound:
		errType = errors.ErrorTypeNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		errType = errors.ErrorTypeRateLimit
	case resp.StatusCode >= 500:
		errType = errors.ErrorTypeServerError
	default:
		errType = errors.ErrorTypeUnknown
	}

	c.logger.WarnWithFields("upstream returned error status", map[string]interface{}{
		"status":     resp.StatusCode,
		"url":        resp.Request.URL.String(),
		"error_type": string(errType),
	})
	return errors.New(errType, resp.StatusCode, failMessage)
}

// Messages returned to API clients when the matching upstream request fails
const (
	msgPost    = "Failed to fetch Instagram post"
	msgReel    = "Failed to fetch Instagram reel"
	msgProfile = "Failed to fetch Instagram profile"
	msgPosts   = "Failed to fetch profile posts"
	msgStories = "Failed to fetch Instagram stories. User may not have any stories or account is private."
)
