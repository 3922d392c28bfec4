// Package rtnl is a small rtnetlink client that dumps the kernel's link,
// address and route tables over a NETLINK_ROUTE socket.
package rtnl

import (
	"errors"
	"time"
)

// DefaultReceiveTimeout bounds each wait for a reply datagram.
const DefaultReceiveTimeout = 2 * time.Second

// DefaultMaxAttempts is the number of times a dump is tried before giving up
// on a timeout or an interrupted dump.
const DefaultMaxAttempts = 2

// DefaultReceiveBufferSize is the initial receive buffer. It grows when the
// kernel sends a larger datagram.
const DefaultReceiveBufferSize = 32 * 1024

// Config holds rtnetlink client settings.
type Config struct {
	// ReceiveTimeout bounds each wait for a reply datagram.
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`

	// MaxAttempts is how many times a dump is issued, each on a fresh socket.
	// Default: 2.
	MaxAttempts int `yaml:"max_attempts"`

	// ReceiveBufferSize is the initial receive buffer in bytes.
	ReceiveBufferSize int `yaml:"receive_buffer_size"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ReceiveTimeout == 0 {
		c.ReceiveTimeout = DefaultReceiveTimeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.ReceiveBufferSize == 0 {
		c.ReceiveBufferSize = DefaultReceiveBufferSize
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.ReceiveTimeout < 10*time.Millisecond {
		return errors.New("rtnl: config: ReceiveTimeout must be at least 10ms")
	}
	if c.MaxAttempts < 1 {
		return errors.New("rtnl: config: MaxAttempts must be at least 1")
	}
	if c.ReceiveBufferSize < 4096 {
		return errors.New("rtnl: config: ReceiveBufferSize must be at least 4096")
	}
	return nil
}
