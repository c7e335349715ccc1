package api

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the API address used when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds every API request.
	DefaultTimeout = 10 * time.Second

	// BaseURLEnv names the environment variable holding the API base URL.
	// It is read by the config package.
	BaseURLEnv = "HABIT_GARDEN_API_URL"
)

// ErrInvalidBaseURL is returned when the configured base URL is not an absolute http(s) URL.
var ErrInvalidBaseURL = errors.New("invalid API base URL")

// Config holds API client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Validate checks the base URL and normalizes its trailing slash.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}
