package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var neighborCount = metrics.Desc{Subsystem: "network", Name: "neighbors", Help: "Neighbour table entries per device, family and NUD state."}

// Neighbor is one ARP or NDP table entry.
type Neighbor struct {
	Device string
	Family string
	State  string
}

// NeighborLister reads the kernel neighbour table. A lister may return
// entries together with ErrNeighborsIncomplete when the dump was
// interrupted by a concurrent change.
type NeighborLister interface {
	Neighbors(ctx context.Context) ([]Neighbor, error)
}

// ErrNeighborsIncomplete marks a neighbour dump that changed while it was
// read.
var ErrNeighborsIncomplete = errors.New("network: neighbour dump interrupted")

// NeighborCollector counts neighbour table entries.
type NeighborCollector struct {
	lister NeighborLister
	logger *slog.Logger
}

// NewNeighborCollector creates a NeighborCollector. A nil lister reads the
// table over netlink.
func NewNeighborCollector(lister NeighborLister, logger *slog.Logger) *NeighborCollector {
	if lister == nil {
		lister = netlinkNeighbors{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NeighborCollector{lister: lister, logger: logger.With("component", "network")}
}

// Name implements metrics.Collector.
func (c *NeighborCollector) Name() string { return metrics.CollectorNeighbors }

// Collect implements metrics.Collector. An interrupted dump is still
// reported.
func (c *NeighborCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	neighs, err := c.lister.Neighbors(ctx)
	if errors.Is(err, ErrNeighborsIncomplete) {
		c.logger.Debug("neighbour dump interrupted, counts may be inconsistent")
	} else if err != nil {
		return nil, fmt.Errorf("network: neighbours: %w", err)
	}

	counts := make(map[Neighbor]int)
	for _, n := range neighs {
		counts[n]++
	}
	out := make([]metrics.Metric, 0, len(counts))
	for n, v := range counts {
		out = append(out, neighborCount.New(float64(v), "device", n.Device, "family", n.Family, "state", n.State))
	}
	return out, nil
}
