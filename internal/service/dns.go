package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// DNSSample is the outcome of one resolution probe.
type DNSSample struct {
	Server  string
	Success bool
	Latency time.Duration
}

// Resolver looks up host names.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DNSProbe resolves a fixed name against the locally configured resolver.
type DNSProbe struct {
	cfg         DNSConfig
	newResolver func(server string) Resolver
	logger      *slog.Logger
}

// NewDNSProbe creates a DNSProbe that talks plain DNS to the nameserver.
func NewDNSProbe(cfg DNSConfig, logger *slog.Logger) *DNSProbe {
	return &DNSProbe{cfg: cfg, newResolver: pinnedResolver, logger: logger}
}

// Probe performs one lookup bounded by the configured timeout. Failures are
// reported in the sample, not returned.
func (p *DNSProbe) Probe(ctx context.Context) DNSSample {
	server, err := p.server()
	if err != nil {
		p.logger.Debug("no nameserver configured", "error", err)
		return DNSSample{}
	}
	s := DNSSample{Server: server}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	addrs, err := p.newResolver(server).LookupHost(ctx, p.cfg.ProbeName)
	s.Latency = time.Since(start)
	if err != nil {
		p.logger.Debug("dns probe failed", "server", server, "name", p.cfg.ProbeName, "error", err)
		return s
	}
	s.Success = len(addrs) > 0
	return s
}

// server returns the configured nameserver as host:port.
func (p *DNSProbe) server() (string, error) {
	if p.cfg.Server != "" {
		return withPort(p.cfg.Server), nil
	}
	ns, err := firstNameserver(p.cfg.ResolvConf)
	if err != nil {
		return "", err
	}
	return withPort(ns), nil
}

func withPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}

// firstNameserver returns the first "nameserver" entry of a resolv.conf.
func firstNameserver(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("service: resolv.conf: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "nameserver" {
			return fields[1], nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("service: resolv.conf: %w", err)
	}
	return "", errors.New("service: resolv.conf: no nameserver entry")
}

// pinnedResolver returns a pure-Go resolver whose queries all go to server.
func pinnedResolver(server string) Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}
}
