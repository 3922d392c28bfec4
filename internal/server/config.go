// Package server exposes collection passes over HTTP.
package server

import (
	"errors"
	"time"
)

// Defaults for the HTTP server.
const (
	DefaultListenAddr      = ":9527"
	DefaultScrapeTimeout   = 10 * time.Second
	DefaultRateLimit       = 5
	DefaultRateBurst       = 10
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Config holds the HTTP server configuration.
type Config struct {
	// ListenAddr is the TCP address to serve on.
	// Default: :9527
	ListenAddr string `yaml:"listen_address"`

	// ScrapeTimeout bounds one collection pass. A shorter
	// X-Prometheus-Scrape-Timeout-Seconds header from the scraper wins.
	// Default: 10s
	ScrapeTimeout time.Duration `yaml:"scrape_timeout"`

	// RateLimit is the sustained number of /metrics requests per second.
	// Default: 5
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token bucket size.
	// Default: 10
	RateBurst int `yaml:"rate_burst"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum time to wait for in-flight requests on
	// shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.ScrapeTimeout == 0 {
		c.ScrapeTimeout = DefaultScrapeTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst == 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks that configuration values are acceptable.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("server: config: ListenAddr is required")
	}
	if c.ScrapeTimeout <= 0 {
		return errors.New("server: config: ScrapeTimeout must be positive")
	}
	if c.RateLimit <= 0 {
		return errors.New("server: config: RateLimit must be positive")
	}
	if c.RateBurst < 1 {
		return errors.New("server: config: RateBurst must be at least 1")
	}
	if c.WriteTimeout > 0 && c.WriteTimeout < c.ScrapeTimeout {
		return errors.New("server: config: WriteTimeout must not be shorter than ScrapeTimeout")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("server: config: ShutdownTimeout must be positive")
	}
	return nil
}
