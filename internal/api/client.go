// Package api is the client for the Smart Habit Garden REST API.
//
// Every request goes through one pipeline: the current bearer token is
// attached before sending, and a 401/403 from any endpoint other than the
// login call expires the session held by the configured Credentials.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	userAgent       = "habit-garden/1.0"
	requestIDHeader = "X-Request-ID"
)

// Credentials supplies the bearer token and is told when the API rejects it.
type Credentials interface {
	// AccessToken returns the current token, or "" when unauthenticated.
	AccessToken() string
	// Expire clears the session after an authorization failure.
	Expire()
}

// Client is a Smart Habit Garden API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	log        *zap.Logger

	// Habit IDs with a grow request in flight.
	growing   map[string]struct{}
	growingMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials sets the token source and expiry handler.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithLogger sets the request logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new API client from the provided configuration.
func NewClient(cfg *Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:     zap.NewNop(),
		growing: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Decorate attaches token to req as a bearer credential. An empty token
// leaves req unauthenticated.
func Decorate(token string, req *http.Request) {
	if token == "" {
		return
	}
	tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	tok.SetAuthHeader(req)
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds != nil {
		Decorate(c.creds.AccessToken(), req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return transportError(method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(method, path, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", path, err)
	}
	return nil
}

// responseError builds the error for a non-2xx response. Authorization
// failures outside the login call expire the session.
func (c *Client) responseError(method, path string, status int, body []byte) error {
	apiErr := &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Detail: parseDetail(body),
		Err:    classify(status),
	}

	if IsAuthFailure(status) {
		if path == pathLogin {
			apiErr.Err = ErrUnauthorized
			return apiErr
		}
		apiErr.Err = ErrSessionExpired
		if c.creds != nil {
			c.log.Info("session rejected by api", zap.String("path", path), zap.Int("status", status))
			c.creds.Expire()
		}
	}

	return apiErr
}

// transportError classifies failures that produced no response.
func transportError(method, path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return fmt.Errorf("%s %s: %w: %w", method, path, ErrNetwork, err)
}

// parseDetail extracts the message from a FastAPI error body.
func parseDetail(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}

	switch d := resp.Detail.(type) {
	case string:
		return d
	case []any:
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	return ""
}
