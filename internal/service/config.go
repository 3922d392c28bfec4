// Package service probes the router's local services: DHCP lease state,
// DNS resolution, the Kea and Unbound control sockets and WAN reachability.
package service

import (
	"errors"
	"time"
)

// Defaults for the service probes.
const (
	DefaultLeaseFile      = "/var/lib/misc/dnsmasq.leases"
	DefaultRenewalHorizon = 12 * time.Hour
	DefaultResolvConf     = "/etc/resolv.conf"
	DefaultProbeName      = "example.com"
	DefaultProbeTimeout   = 2 * time.Second
	DefaultKeaSocket      = "/run/kea/kea4-ctrl-socket"
	DefaultUnboundSocket  = "/run/unbound.ctl"
	DefaultSTUNServer     = "stun:stun.l.google.com:19302"
)

// DHCPConfig configures the lease store check.
type DHCPConfig struct {
	// LeaseFile is the dnsmasq lease file or Kea memfile CSV.
	LeaseFile string `yaml:"lease_file"`

	// RenewalHorizon is how long the lease store may go unmodified before
	// it is reported stale.
	RenewalHorizon time.Duration `yaml:"renewal_horizon"`
}

// DNSConfig configures the resolution probe.
type DNSConfig struct {
	// ResolvConf supplies the nameserver when Server is empty.
	ResolvConf string `yaml:"resolv_conf"`

	// Server overrides the nameserver, as host or host:port.
	Server string `yaml:"server"`

	// ProbeName is the name looked up on every scrape.
	ProbeName string `yaml:"probe_name"`

	// Timeout bounds the lookup.
	Timeout time.Duration `yaml:"timeout"`
}

// SocketConfig configures a control-socket collector.
type SocketConfig struct {
	Socket  string        `yaml:"socket"`
	Timeout time.Duration `yaml:"timeout"`
}

// WANConfig configures the STUN reachability probe.
type WANConfig struct {
	Servers []string      `yaml:"servers"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config holds the configuration of all service probes.
type Config struct {
	DHCP    DHCPConfig   `yaml:"dhcp"`
	DNS     DNSConfig    `yaml:"dns"`
	Kea     SocketConfig `yaml:"kea"`
	Unbound SocketConfig `yaml:"unbound"`
	WAN     WANConfig    `yaml:"wan"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.DHCP.LeaseFile == "" {
		c.DHCP.LeaseFile = DefaultLeaseFile
	}
	if c.DHCP.RenewalHorizon == 0 {
		c.DHCP.RenewalHorizon = DefaultRenewalHorizon
	}
	if c.DNS.ResolvConf == "" {
		c.DNS.ResolvConf = DefaultResolvConf
	}
	if c.DNS.ProbeName == "" {
		c.DNS.ProbeName = DefaultProbeName
	}
	if c.DNS.Timeout == 0 {
		c.DNS.Timeout = DefaultProbeTimeout
	}
	if c.Kea.Socket == "" {
		c.Kea.Socket = DefaultKeaSocket
	}
	if c.Kea.Timeout == 0 {
		c.Kea.Timeout = DefaultProbeTimeout
	}
	if c.Unbound.Socket == "" {
		c.Unbound.Socket = DefaultUnboundSocket
	}
	if c.Unbound.Timeout == 0 {
		c.Unbound.Timeout = DefaultProbeTimeout
	}
	if len(c.WAN.Servers) == 0 {
		c.WAN.Servers = []string{DefaultSTUNServer}
	}
	if c.WAN.Timeout == 0 {
		c.WAN.Timeout = DefaultProbeTimeout
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.DHCP.LeaseFile == "" {
		return errors.New("service: config: DHCP.LeaseFile is required")
	}
	if c.DHCP.RenewalHorizon < time.Minute {
		return errors.New("service: config: DHCP.RenewalHorizon must be at least 1m")
	}
	if c.DNS.ProbeName == "" {
		return errors.New("service: config: DNS.ProbeName is required")
	}
	if c.DNS.Timeout < 10*time.Millisecond {
		return errors.New("service: config: DNS.Timeout must be at least 10ms")
	}
	if c.Kea.Timeout <= 0 || c.Unbound.Timeout <= 0 || c.WAN.Timeout <= 0 {
		return errors.New("service: config: timeouts must be positive")
	}
	for _, s := range c.WAN.Servers {
		if s == "" {
			return errors.New("service: config: WAN.Servers contains an empty entry")
		}
	}
	return nil
}
