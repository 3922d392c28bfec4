package metrics

import (
	"context"
	"time"
)

// Collector names used in configuration and logs.
const (
	CollectorSystem    = "system"
	CollectorNetlink   = "netlink"
	CollectorNetClass  = "netclass"
	CollectorNeighbors = "neighbors"
	CollectorNftables  = "nftables"
	CollectorWireGuard = "wireguard"
	CollectorService   = "service"
	CollectorKea       = "kea"
	CollectorUnbound   = "unbound"
	CollectorWAN       = "wan"
)

// Collector produces the metrics of one subsystem. Collect must honour ctx
// cancellation; a collector that overruns its timeout is abandoned.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]Metric, error)
}

// FatalError is implemented by errors that fail the whole collection pass
// rather than only the collector that returned them.
type FatalError interface {
	error
	Fatal() bool
}

// Observer is notified after each collector finishes or is abandoned.
type Observer interface {
	ObserveCollector(name string, duration time.Duration, samples int, err error)
}
