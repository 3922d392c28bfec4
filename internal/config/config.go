// Package config loads the exporter's YAML configuration file and cascades
// defaults and validation into every component section.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
	"github.com/plexsphere/homerouter-exporter/internal/rtnl"
	"github.com/plexsphere/homerouter-exporter/internal/server"
	"github.com/plexsphere/homerouter-exporter/internal/service"
	"github.com/plexsphere/homerouter-exporter/internal/system"
)

// DefaultPath is the configuration file read when no path is given. It may
// be absent.
const DefaultPath = "/etc/homerouter-exporter/config.yaml"

// DefaultLogLevel is used when LogLevel is empty.
const DefaultLogLevel = "info"

// Config is the top-level exporter configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error. Default: info.
	LogLevel string `yaml:"log_level"`

	Server  server.Config  `yaml:"server"`
	Metrics metrics.Config `yaml:"metrics"`
	Netlink rtnl.Config    `yaml:"netlink"`
	System  system.Config  `yaml:"system"`
	Service service.Config `yaml:"service"`
}

// ApplyDefaults sets default values for zero-valued fields in every section.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Server.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Netlink.ApplyDefaults()
	c.System.ApplyDefaults()
	c.Service.ApplyDefaults()
}

// Validate checks every section and returns the first error.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Netlink.Validate(); err != nil {
		return err
	}
	if err := c.System.Validate(); err != nil {
		return err
	}
	return c.Service.Validate()
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Parse decodes YAML data and applies defaults. Unknown keys are rejected.
// The result is not validated so that callers can apply overrides first.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Load reads the file at path. A missing file at DefaultPath yields the
// defaults; a missing file anywhere else is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultPath {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseLevel maps a level name to an slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", name)
	}
	return level, nil
}
