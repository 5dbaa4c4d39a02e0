package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is how many times a transient failure is retried
	// after the initial attempt.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial backoff delay.
	DefaultRetryDelay = 2 * time.Second

	// DefaultMaxDelay caps the exponential backoff.
	DefaultMaxDelay = 10 * time.Second

	// DefaultBackoffMult is the backoff multiplier between attempts.
	DefaultBackoffMult = 2.0
)

// CallStats describes what a single Get cost: how many HTTP attempts were
// made and how long the whole call took including backoff waits.
type CallStats struct {
	Attempts int
	Elapsed  time.Duration
}

// Client is a rate-limited HTTP client with retry and exponential backoff.
// Transient failures (HTTP 429/502/503, timeouts, connection resets) are
// retried; permanent failures are returned immediately without burning
// retry budget.
type Client struct {
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	limiter     *rate.Limiter
	userAgent   string
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithMaxRetries sets the maximum number of retries after the initial
// attempt.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithBackoffMultiplier sets the backoff multiplier.
func WithBackoffMultiplier(m float64) ClientOption {
	return func(c *Client) {
		c.backoffMult = m
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRequestInterval spaces successive requests at least d apart. Sources
// with published rate limits get one client each so the limiter serializes
// all traffic to that source.
func WithRequestInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client with default retry behavior.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request against rawURL with the given query and
// headers. Transient failures are retried with exponential backoff until
// the retry budget is spent; permanent failures return immediately. The
// returned stats count every attempt made, successful or not.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values, header http.Header) (body []byte, stats CallStats, err error) {
	started := time.Now()
	defer func() {
		stats.Elapsed = time.Since(started)
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, stats, fmt.Errorf("parse url: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	target := u.String()

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, stats, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, stats, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, stats, fmt.Errorf("create request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		stats.Attempts++
		resp, err := c.client.Do(req)
		if err != nil {
			if !IsTransient(err) {
				return nil, stats, fmt.Errorf("http request: %w", err)
			}
			lastErr = err
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(data)}
			if !IsTransient(statusErr) {
				return nil, stats, statusErr
			}
			lastErr = statusErr
			continue
		}

		return data, stats, nil
	}

	return nil, stats, fmt.Errorf("max retries exceeded: %w", lastErr)
}
