// Package feed fetches seasons, prices, rewards and tournaments from the game
// API and hands them to the engine as domain values.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lorkus/scholarledger/pkg/logger"
	"github.com/lorkus/scholarledger/pkg/metrics"
	"golang.org/x/time/rate"
)

// Defaults for the public game API.
const (
	DefaultBaseURL     = "https://api.splinterlands.com"
	DefaultPriceURL    = "https://prices.splinterlands.com/prices"
	DefaultRewardToken = "SPS"

	defaultTimeout  = 20 * time.Second
	defaultRPS      = 5
	defaultBurst    = 5
	defaultPageSize = 500
)

// Client talks to the game API. All requests share one rate limiter.
type Client struct {
	baseURL  string
	priceURL string
	http     *http.Client
	limiter  *rate.Limiter
	pageSize int
	logger   logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the game API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

// WithPriceURL sets the price snapshot endpoint.
func WithPriceURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimSpace(u); u != "" {
			c.priceURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
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

// WithRateLimit bounds upstream requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithPageSize sets the reward history page length.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		priceURL: DefaultPriceURL,
		http:     &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		pageSize: defaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("feed")
	}
	return c
}

// getJSON waits for the limiter, issues a GET and decodes the body into out.
// Numbers decode as json.Number so quotes and amounts keep their precision.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFeedRequest(endpoint, "error", elapsed)
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordFeedRequest(endpoint, strconv.Itoa(resp.StatusCode), elapsed)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, endpoint, resp.StatusCode)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}
	return nil
}
