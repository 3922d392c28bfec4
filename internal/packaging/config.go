// Package packaging installs the exporter as a systemd service.
package packaging

import (
	"errors"
	"path/filepath"
)

// Default install locations.
const (
	DefaultBinaryPath   = "/usr/local/bin/homerouter-exporter"
	DefaultConfigDir    = "/etc/homerouter-exporter"
	DefaultServiceName  = "homerouter-exporter"
	DefaultUnitFilePath = "/etc/systemd/system/homerouter-exporter.service"
)

// InstallConfig holds the paths used by Install and Uninstall. It is passed
// in by the caller; nothing here reads a file.
type InstallConfig struct {
	// BinaryPath is where the running executable is copied.
	BinaryPath string

	// ConfigDir holds config.yaml.
	ConfigDir string

	// UnitFilePath is the systemd unit written by Install.
	UnitFilePath string

	// ServiceName is the unit name passed to systemctl.
	ServiceName string

	// ListenAddr, when set, replaces the listen address in a freshly
	// written config.yaml. An existing config is never touched.
	ListenAddr string

	// Start enables the unit and starts it after installation.
	Start bool
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *InstallConfig) ApplyDefaults() {
	if c.BinaryPath == "" {
		c.BinaryPath = DefaultBinaryPath
	}
	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.UnitFilePath == "" {
		c.UnitFilePath = DefaultUnitFilePath
	}
}

// Validate checks that required fields are set.
func (c *InstallConfig) Validate() error {
	if c.BinaryPath == "" || !filepath.IsAbs(c.BinaryPath) {
		return errors.New("packaging: config: BinaryPath must be an absolute path")
	}
	if c.ConfigDir == "" || !filepath.IsAbs(c.ConfigDir) {
		return errors.New("packaging: config: ConfigDir must be an absolute path")
	}
	if c.ServiceName == "" {
		return errors.New("packaging: config: ServiceName is required")
	}
	if c.UnitFilePath == "" {
		return errors.New("packaging: config: UnitFilePath is required")
	}
	return nil
}

// ConfigPath returns the config.yaml location inside ConfigDir.
func (c *InstallConfig) ConfigPath() string {
	return filepath.Join(c.ConfigDir, "config.yaml")
}
