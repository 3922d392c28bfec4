// Package metrics provides the uniform metric model and the aggregator that
// runs one collection pass across all enabled collectors.
package metrics

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DefaultCollectorTimeout bounds each collector within a pass.
const DefaultCollectorTimeout = 3 * time.Second

// Config holds the configuration for collection passes.
type Config struct {
	// CollectorTimeout bounds each collector within a pass. A collector
	// that overruns is abandoned and contributes no metrics.
	// Must be at least 10ms. Default: 3s.
	CollectorTimeout time.Duration `yaml:"collector_timeout"`

	// Enabled lists the collectors to run. Empty means all registered
	// collectors that are enabled by default.
	Enabled []string `yaml:"enabled"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.CollectorTimeout == 0 {
		c.CollectorTimeout = DefaultCollectorTimeout
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.CollectorTimeout < 10*time.Millisecond {
		return errors.New("metrics: config: CollectorTimeout must be at least 10ms")
	}
	seen := make(map[string]bool, len(c.Enabled))
	for _, name := range c.Enabled {
		if name == "" {
			return errors.New("metrics: config: Enabled contains an empty collector name")
		}
		if seen[name] {
			return fmt.Errorf("metrics: config: collector %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

// CheckEnabled reports enabled names that match no available collector.
func (c *Config) CheckEnabled(available []string) error {
	var unknown []string
	for _, name := range c.Enabled {
		if !slices.Contains(available, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("metrics: config: unknown collectors %v (available: %v)", unknown, available)
	}
	return nil
}

// IsEnabled reports whether the named collector should run. When Enabled is
// empty the collector's own default decides.
func (c *Config) IsEnabled(name string, enabledByDefault bool) bool {
	if len(c.Enabled) == 0 {
		return enabledByDefault
	}
	return slices.Contains(c.Enabled, name)
}
