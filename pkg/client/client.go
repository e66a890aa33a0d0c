// Package client implements the resilient HTTP executor that every pipeline
// stage funnels its requests through. The target service stalls for seconds
// at a time and fails a fraction of calls with 5xx responses, so the
// executor retries those faults on a capped exponential backoff schedule and
// surfaces everything else immediately.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/animals-etl-client/pkg/logging"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultMaxAttempts    = 6
	DefaultConnectTimeout = 5 * time.Second
	DefaultRequestTimeout = 45 * time.Second

	defaultUserAgent = "animals-etl-client/1.0"
)

// Config holds the executor settings.
type Config struct {
	// BaseURL is the root of the catalog service, e.g. "http://localhost:3123".
	BaseURL string
	// UserAgent is sent on every request.
	UserAgent string
	// MaxAttempts caps the total number of tries per request, first attempt
	// included.
	MaxAttempts int
	// ConnectTimeout bounds dialing the service.
	ConnectTimeout time.Duration
	// RequestTimeout bounds one whole attempt, headers and body included. It
	// has to sit well above the multi-second stalls the service takes under
	// its latency chaos.
	RequestTimeout time.Duration
	// Backoff computes the delay after failed attempt n. Defaults to the
	// package Backoff schedule; tests inject a zero delay here.
	Backoff func(attempt int) time.Duration
}

// DefaultConfig returns a Config tuned for a full catalog run against the
// given base URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      defaultUserAgent,
		MaxAttempts:    DefaultMaxAttempts,
		ConnectTimeout: DefaultConnectTimeout,
		RequestTimeout: DefaultRequestTimeout,
		Backoff:        Backoff,
	}
}

// Client executes JSON requests against the catalog service.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New validates cfg, fills in defaults and returns a ready Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Backoff == nil {
		cfg.Backoff = Backoff
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		// The detail stage keeps up to 32 requests in flight against a
		// single host, so the idle pool must hold more than the stdlib
		// default of 2 connections per host.
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 64,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		logger: logging.NewLogger("client"),
	}, nil
}

// Config returns the effective configuration after defaulting.
func (c *Client) Config() Config {
	return c.config
}

// Request describes one JSON exchange. Path must start with a slash and may
// already contain substituted parameters; Label, when set, replaces Path in
// logs and metrics so that parameterized paths collapse into one series.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Label  string
}

func (r Request) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Path
}

// GetJSON fetches path with optional query parameters and decodes the
// response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// PostJSON sends body as JSON to path and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Do executes req and decodes the response into out when out is non-nil.
// Faults with status 500, 502, 503 or 504 and timeouts are retried on the
// Backoff schedule up to MaxAttempts; every other fault is terminal and
// returned immediately. When the budget runs out the returned error matches
// ErrRetryExhausted and wraps the last attempt's *APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	target := c.config.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	endpoint := req.label()
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		body, status, err := c.attempt(ctx, req.Method, target, endpoint, payload)
		if err == nil && status >= 200 && status < 300 {
			if attempt > 1 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request recovered after retries")
			}
			if out == nil || len(body) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response from %s: %w", endpoint, err)
			}
			return nil
		}

		if err != nil && errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		class := classify(status, err)
		apiErr := &APIError{
			StatusCode: status,
			Class:      class,
			Endpoint:   endpoint,
			Message:    faultMessage(body, err),
			Err:        err,
		}
		if !apiErr.Retryable() {
			c.logger.Error().
				Str("endpoint", endpoint).
				Int("status", status).
				Str("class", string(class)).
				Msg("Terminal fault, giving up")
			return apiErr
		}
		lastErr = apiErr

		if attempt == c.config.MaxAttempts {
			break
		}

		delay := c.config.Backoff(attempt)
		retriesTotal.WithLabelValues(string(class)).Inc()
		backoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Int("max_attempts", c.config.MaxAttempts).
			Str("class", string(class)).
			Dur("backoff", delay).
			Msg("Retryable fault, backing off")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w while backing off: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(delay):
		}
	}

	retryExhaustedTotal.WithLabelValues(endpoint).Inc()
	c.logger.Error().
		Str("endpoint", endpoint).
		Int("attempts", c.config.MaxAttempts).
		Msg("Retry budget exhausted")
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, c.config.MaxAttempts, lastErr)
}

// attempt performs one HTTP exchange and returns the raw body and status.
func (c *Client) attempt(ctx context.Context, method, target, endpoint string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, string(classify(0, err))).Inc()
		return nil, 0, err
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// faultMessage condenses a failed exchange into one loggable line.
func faultMessage(body []byte, err error) string {
	if err != nil {
		return err.Error()
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "no response body"
	}
	return msg
}
