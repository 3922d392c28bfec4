// Package system samples whole-system health from procfs and sysfs: CPU
// utilisation, load, memory, per-mount storage and thermal zones.
package system

import (
	"errors"
	"time"
)

// Default pseudo-filesystem mount points.
const (
	DefaultProcPath = "/proc"
	DefaultSysPath  = "/sys"
)

// DefaultMountTimeout bounds a single statfs call.
const DefaultMountTimeout = time.Second

// Config holds the pseudo-filesystem locations read by the sampler.
type Config struct {
	// ProcPath is the procfs mount point. Default: /proc.
	ProcPath string `yaml:"proc_path"`

	// SysPath is the sysfs mount point. Default: /sys.
	SysPath string `yaml:"sys_path"`

	// MountTimeout bounds the statfs of one mount. A mount that does not
	// answer in time is left out of the pass. Default: 1s.
	MountTimeout time.Duration `yaml:"mount_timeout"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.ProcPath == "" {
		c.ProcPath = DefaultProcPath
	}
	if c.SysPath == "" {
		c.SysPath = DefaultSysPath
	}
	if c.MountTimeout == 0 {
		c.MountTimeout = DefaultMountTimeout
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.ProcPath == "" {
		return errors.New("system: config: ProcPath is required")
	}
	if c.SysPath == "" {
		return errors.New("system: config: SysPath is required")
	}
	if c.MountTimeout < 0 {
		return errors.New("system: config: MountTimeout must not be negative")
	}
	return nil
}
