package network

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/prometheus/procfs/sysfs"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var linkSpeed = metrics.Desc{Subsystem: "network", Name: "link_speed", Unit: "bytes", Help: "Negotiated link speed in bytes per second."}

// SpeedCollector reports negotiated link speeds from /sys/class/net.
// Interfaces without a speed (virtual devices, links that are down) are
// left out.
type SpeedCollector struct {
	sysPath string
	logger  *slog.Logger
}

// NewSpeedCollector creates a SpeedCollector reading sysfs at sysPath.
func NewSpeedCollector(sysPath string, logger *slog.Logger) *SpeedCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeedCollector{sysPath: sysPath, logger: logger.With("component", "network")}
}

// Name implements metrics.Collector.
func (c *SpeedCollector) Name() string { return metrics.CollectorNetClass }

// Collect implements metrics.Collector.
func (c *SpeedCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	fs, err := sysfs.NewFS(c.sysPath)
	if err != nil {
		return nil, fmt.Errorf("network: sysfs: %w", err)
	}
	nc, err := fs.NetClass()
	if err != nil {
		return nil, fmt.Errorf("network: netclass: %w", err)
	}

	names := make([]string, 0, len(nc))
	for name := range nc {
		names = append(names, name)
	}
	slices.Sort(names)

	var out []metrics.Metric
	for _, name := range names {
		speed := nc[name].Speed
		if speed == nil || *speed <= 0 {
			continue
		}
		// sysfs reports Mbit/s.
		out = append(out, linkSpeed.New(float64(*speed)*1e6/8, "device", name))
	}
	return out, nil
}
