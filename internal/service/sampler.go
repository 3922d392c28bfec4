package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var (
	leaseStoreUp    = metrics.Desc{Subsystem: "dhcp", Name: "lease_store_up", Help: "Whether the DHCP lease store exists."}
	leaseStoreFresh = metrics.Desc{Subsystem: "dhcp", Name: "lease_store_fresh", Help: "Whether the DHCP lease store was modified within the renewal horizon."}
	leaseStoreAge   = metrics.Desc{Subsystem: "dhcp", Name: "lease_store_age", Unit: "seconds", Help: "Time since the DHCP lease store was last modified."}
	leasesActive    = metrics.Desc{Subsystem: "dhcp", Name: "leases", Help: "Number of unexpired DHCP leases."}
	dnsSuccess      = metrics.Desc{Subsystem: "dns", Name: "probe_success", Help: "Whether the last DNS resolution probe succeeded."}
	dnsDuration     = metrics.Desc{Subsystem: "dns", Name: "probe_duration", Unit: "seconds", Help: "Duration of the last DNS resolution probe."}
)

// ServiceSample is the result of one service sampling pass.
type ServiceSample struct {
	DHCP DHCPSample
	DNS  DNSSample
}

// Sampler runs the DHCP and DNS probes.
type Sampler struct {
	dhcp   *DHCPProbe
	dns    *DNSProbe
	logger *slog.Logger
}

// NewSampler creates a Sampler. Config defaults are applied automatically.
func NewSampler(cfg Config, logger *slog.Logger) *Sampler {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	lg := logger.With("component", "service")
	return &Sampler{
		dhcp:   NewDHCPProbe(cfg.DHCP, lg),
		dns:    NewDNSProbe(cfg.DNS, lg),
		logger: lg,
	}
}

// Sample runs both probes concurrently. It never fails.
func (s *Sampler) Sample(ctx context.Context) ServiceSample {
	var out ServiceSample
	var g errgroup.Group
	g.Go(func() error {
		out.DHCP = s.dhcp.Probe()
		return nil
	})
	g.Go(func() error {
		out.DNS = s.dns.Probe(ctx)
		return nil
	})
	_ = g.Wait()
	return out
}

// Name implements metrics.Collector.
func (s *Sampler) Name() string { return metrics.CollectorService }

// Collect implements metrics.Collector.
func (s *Sampler) Collect(ctx context.Context) ([]metrics.Metric, error) {
	return SampleMetrics(s.Sample(ctx)), nil
}

// SampleMetrics converts a ServiceSample. Probe failures become zero-valued
// status gauges.
func SampleMetrics(s ServiceSample) []metrics.Metric {
	out := []metrics.Metric{
		leaseStoreUp.New(metrics.Bool(s.DHCP.Present)),
		leaseStoreFresh.New(metrics.Bool(s.DHCP.Fresh)),
	}
	if s.DHCP.Present {
		out = append(out, leaseStoreAge.New(s.DHCP.Age.Seconds()))
	}
	if s.DHCP.LeasesKnown {
		out = append(out, leasesActive.New(float64(s.DHCP.Leases)))
	}

	out = append(out, dnsSuccess.New(metrics.Bool(s.DNS.Success), "server", s.DNS.Server))
	if s.DNS.Server != "" {
		out = append(out, dnsDuration.New(s.DNS.Latency.Round(time.Microsecond).Seconds(), "server", s.DNS.Server))
	}
	return out
}
