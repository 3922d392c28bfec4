package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/plexsphere/homerouter-exporter/internal/config"
	"github.com/plexsphere/homerouter-exporter/internal/metrics"
	"github.com/plexsphere/homerouter-exporter/internal/network"
	"github.com/plexsphere/homerouter-exporter/internal/rtnl"
	"github.com/plexsphere/homerouter-exporter/internal/service"
	"github.com/plexsphere/homerouter-exporter/internal/system"
)

type candidate struct {
	collector        metrics.Collector
	enabledByDefault bool
}

// buildCollectors constructs every collector and keeps those the config
// enables. Collectors that depend on an optional daemon default to on only
// when its control socket exists; the WAN probe sends traffic off the host
// and is off unless asked for.
func buildCollectors(cfg *config.Config, logger *slog.Logger) ([]metrics.Collector, error) {
	rt := rtnl.NewClient(cfg.Netlink, rtnl.NewSocketDialer(cfg.Netlink), logger)

	all := []candidate{
		{system.NewCollector(system.NewSampler(cfg.System, nil, logger), logger), true},
		{network.NewLinkCollector(rt, logger), true},
		{network.NewSpeedCollector(cfg.System.SysPath, logger), true},
		{network.NewNeighborCollector(nil, logger), true},
		{network.NewNftCollector(nil, logger), true},
		{network.NewWireGuardCollector(nil, logger), true},
		{service.NewSampler(cfg.Service, logger), true},
		{service.NewKeaCollector(cfg.Service.Kea, logger), socketExists(cfg.Service.Kea.Socket)},
		{service.NewUnboundCollector(cfg.Service.Unbound, logger), socketExists(cfg.Service.Unbound.Socket)},
		{service.NewWANCollector(cfg.Service.WAN, nil, logger), false},
	}

	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.collector.Name())
	}
	if err := cfg.Metrics.CheckEnabled(names); err != nil {
		return nil, err
	}

	var out []metrics.Collector
	for _, c := range all {
		if cfg.Metrics.IsEnabled(c.collector.Name(), c.enabledByDefault) {
			out = append(out, c.collector)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no collectors enabled")
	}
	return out, nil
}

func socketExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Type() == fs.ModeSocket
}
