package dephell

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/griels/dephell/internal/logx"
)

const (
	defaultConcurrency = 5
	defaultTimeout     = 15 * time.Second
)

// Option configures resolution behavior.
type Option func(*config) error

// config holds all resolution configuration.
type config struct {
	concurrency int
	maxSteps    int
	timeout     time.Duration
	httpClient  *http.Client

	// logger is the structured logger for debug/warn output. If nil,
	// logging is disabled: libraries are silent unless told otherwise.
	logger *slog.Logger
}

// WithLogger sets a structured logger for resolution diagnostics
// (backtracking steps, cycle warnings). If not set, logging is disabled.
//
// The library uses log/slog, so any backend can be plugged in via handlers.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}

// WithConcurrency bounds how many provider lookups run at once for a single
// frontier pass. Defaults to 5.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		c.concurrency = n
		return nil
	}
}

// WithMaxSteps bounds the number of resolution iterations. Zero means
// unlimited; the engine still terminates because exclusion sets only grow.
func WithMaxSteps(n int) Option {
	return func(c *config) error {
		c.maxSteps = n
		return nil
	}
}

// WithTimeout sets the HTTP request timeout for registry-backed providers
// constructed through the convenience API.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client for registry-backed providers
// constructed through the convenience API.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		c.httpClient = client
		return nil
	}
}

func (c *config) validate() error {
	if c.concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	if c.maxSteps < 0 {
		return errors.New("max steps must not be negative")
	}
	if c.timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// log returns the configured logger, or a no-op logger so internal code can
// log without nil checks.
func (c *config) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logx.Discard()
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
