package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pion/stun/v3"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var (
	wanSuccess  = metrics.Desc{Subsystem: "wan", Name: "probe_success", Help: "Whether the STUN server answered a binding request."}
	wanDuration = metrics.Desc{Subsystem: "wan", Name: "probe_duration", Unit: "seconds", Help: "Round trip time of the STUN binding request."}
	wanAddress  = metrics.Desc{Subsystem: "wan", Name: "public_address_info", Help: "Public address reported by the STUN server, value is always 1."}
)

// STUNClient performs a single binding request and returns the mapped
// address as ip:port.
type STUNClient interface {
	Bind(ctx context.Context, server string) (string, error)
}

// WANCollector probes upstream reachability with STUN binding requests.
type WANCollector struct {
	cfg    WANConfig
	client STUNClient
	logger *slog.Logger
}

// NewWANCollector creates a WANCollector. A nil client uses UDP STUN.
func NewWANCollector(cfg WANConfig, client STUNClient, logger *slog.Logger) *WANCollector {
	if client == nil {
		client = UDPSTUNClient{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WANCollector{cfg: cfg, client: client, logger: logger.With("component", "service")}
}

// Name implements metrics.Collector.
func (c *WANCollector) Name() string { return metrics.CollectorWAN }

// Collect probes every server in turn. An unreachable server is reported
// through its success gauge.
func (c *WANCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	var out []metrics.Metric
	seen := make(map[string]bool)
	for _, server := range c.cfg.Servers {
		pctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		start := time.Now()
		mapped, err := c.client.Bind(pctx, server)
		elapsed := time.Since(start)
		cancel()

		if err != nil {
			c.logger.Debug("stun probe failed", "server", server, "error", err)
			out = append(out, wanSuccess.New(0, "server", server))
			continue
		}
		out = append(out,
			wanSuccess.New(1, "server", server),
			wanDuration.New(elapsed.Seconds(), "server", server),
		)
		if ip := hostOf(mapped); ip != "" && !seen[ip] {
			seen[ip] = true
			out = append(out, wanAddress.New(1, "address", ip))
		}
	}
	return out, nil
}

func hostOf(hostport string) string {
	i := strings.LastIndexByte(hostport, ':')
	if i < 0 {
		return hostport
	}
	return strings.Trim(hostport[:i], "[]")
}

// UDPSTUNClient implements STUNClient with pion/stun.
type UDPSTUNClient struct{}

// Bind sends one binding request to server, given as a stun: URI or
// host:port.
func (UDPSTUNClient) Bind(ctx context.Context, server string) (string, error) {
	uriStr := strings.TrimSpace(server)
	if !strings.HasPrefix(uriStr, "stun:") {
		uriStr = "stun:" + uriStr
	}
	uri, err := stun.ParseURI(uriStr)
	if err != nil {
		return "", fmt.Errorf("service: stun: parse %q: %w", server, err)
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return "", fmt.Errorf("service: stun: dial: %w", err)
	}
	defer client.Close()

	type result struct {
		addr string
		err  error
	}
	done := make(chan result, 2)
	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	go func() {
		err := client.Do(msg, func(ev stun.Event) {
			if ev.Error != nil {
				done <- result{err: ev.Error}
				return
			}
			var addr stun.XORMappedAddress
			if err := addr.GetFrom(ev.Message); err != nil {
				done <- result{err: err}
				return
			}
			done <- result{addr: addr.String()}
		})
		if err != nil {
			done <- result{err: err}
		}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("service: stun: %w", r.err)
		}
		return r.addr, nil
	case <-ctx.Done():
		return "", fmt.Errorf("service: stun: %w", ctx.Err())
	}
}
