package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var unboundStats = []struct {
	key  string
	desc metrics.Desc
}{
	{"total.num.queries", metrics.Desc{Subsystem: "dns", Name: "queries", Kind: metrics.KindCounter, Help: "Queries answered by Unbound."}},
	{"total.num.cachehits", metrics.Desc{Subsystem: "dns", Name: "cache_hits", Kind: metrics.KindCounter, Help: "Unbound queries answered from cache."}},
	{"total.num.cachemiss", metrics.Desc{Subsystem: "dns", Name: "cache_misses", Kind: metrics.KindCounter, Help: "Unbound queries that needed recursion."}},
	{"total.requestlist.exceeded", metrics.Desc{Subsystem: "dns", Name: "requestlist_exceeded", Kind: metrics.KindCounter, Help: "Unbound queries dropped because the request list was full."}},
}

// UnboundCollector reads resolver statistics from the Unbound remote
// control socket without resetting them.
type UnboundCollector struct {
	cfg    SocketConfig
	logger *slog.Logger
}

// NewUnboundCollector creates an UnboundCollector.
func NewUnboundCollector(cfg SocketConfig, logger *slog.Logger) *UnboundCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnboundCollector{cfg: cfg, logger: logger.With("component", "service")}
}

// Name implements metrics.Collector.
func (c *UnboundCollector) Name() string { return metrics.CollectorUnbound }

// Collect implements metrics.Collector.
func (c *UnboundCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.cfg.Socket)
	if err != nil {
		return nil, fmt.Errorf("service: unbound: dial: %w", err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if _, err := io.WriteString(conn, "UBCT1 stats_noreset\n"); err != nil {
		return nil, fmt.Errorf("service: unbound: send: %w", err)
	}

	stats, err := parseUnboundStats(conn)
	if err != nil {
		return nil, err
	}

	var out []metrics.Metric
	for _, s := range unboundStats {
		if v, ok := stats[s.key]; ok {
			out = append(out, s.desc.New(v))
		}
	}
	return out, nil
}

// parseUnboundStats reads "key=value" lines until the server closes the
// connection. Lines that are not numeric statistics are ignored; an "error"
// line from the server fails the read.
func parseUnboundStats(r io.Reader) (map[string]float64, error) {
	stats := make(map[string]float64)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "error") {
			return nil, fmt.Errorf("service: unbound: %s", line)
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			continue
		}
		stats[key] = f
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("service: unbound: read: %w", err)
	}
	return stats, nil
}
