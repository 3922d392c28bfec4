package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

var (
	loadDesc = metrics.Desc{Subsystem: "cpu", Name: "load1", Help: "One minute load average."}
	upDesc   = metrics.Desc{Subsystem: "network", Name: "link_up", Help: "Whether the interface is operationally up."}
	dhcpDesc = metrics.Desc{Subsystem: "dhcp", Name: "lease_store_up", Help: "Whether the DHCP lease store exists."}
)

// mockSource is a Source with canned results.
type mockSource struct {
	mu       sync.Mutex
	metrics  []metrics.Metric
	err      error
	panics   bool
	deadline time.Duration
	calls    int
}

func (m *mockSource) Collect(ctx context.Context) ([]metrics.Metric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if dl, ok := ctx.Deadline(); ok {
		m.deadline = time.Until(dl)
	}
	if m.panics {
		panic("source exploded")
	}
	return m.metrics, m.err
}

// stubCollector is a metrics.Collector for aggregator-backed tests.
type stubCollector struct {
	name    string
	metrics []metrics.Metric
	block   bool
}

func (c stubCollector) Name() string { return c.name }

func (c stubCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.metrics, nil
}

type failingCollector struct {
	name string
	err  error
}

func (c failingCollector) Name() string { return c.name }

func (c failingCollector) Collect(context.Context) ([]metrics.Metric, error) {
	return nil, c.err
}

// fatalError fails the whole pass.
type fatalError struct{}

func (fatalError) Error() string { return "rtnl: connect: operation not permitted" }
func (fatalError) Fatal() bool   { return true }
