// Package network turns kernel network state into metrics: interfaces,
// routes and addresses from route netlink, link speed from sysfs, the
// neighbour table, nftables set counters and WireGuard peers.
package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
	"github.com/plexsphere/homerouter-exporter/internal/rtnl"
)

var (
	linkUp        = metrics.Desc{Subsystem: "network", Name: "link_up", Help: "Whether the interface is operationally up."}
	linkOperState = metrics.Desc{Subsystem: "network", Name: "link_operstate", Help: "RFC 2863 operational state of the interface, one series per state."}
	linkMTU       = metrics.Desc{Subsystem: "network", Name: "link_mtu", Unit: "bytes", Help: "Interface MTU."}
	linkInfo      = metrics.Desc{Subsystem: "network", Name: "link_info", Help: "Interface metadata, value is always 1."}

	linkRxBytes   = metrics.Desc{Subsystem: "network", Name: "link_rx", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes received on the interface."}
	linkTxBytes   = metrics.Desc{Subsystem: "network", Name: "link_tx", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes transmitted on the interface."}
	linkRxPackets = metrics.Desc{Subsystem: "network", Name: "link_rx", Unit: "packets", Kind: metrics.KindCounter, Help: "Packets received on the interface."}
	linkTxPackets = metrics.Desc{Subsystem: "network", Name: "link_tx", Unit: "packets", Kind: metrics.KindCounter, Help: "Packets transmitted on the interface."}
	linkRxErrors  = metrics.Desc{Subsystem: "network", Name: "link_rx", Unit: "errors", Kind: metrics.KindCounter, Help: "Receive errors on the interface."}
	linkTxErrors  = metrics.Desc{Subsystem: "network", Name: "link_tx", Unit: "errors", Kind: metrics.KindCounter, Help: "Transmit errors on the interface."}
	linkRxDropped = metrics.Desc{Subsystem: "network", Name: "link_rx", Unit: "dropped", Kind: metrics.KindCounter, Help: "Received packets dropped on the interface."}
	linkTxDropped = metrics.Desc{Subsystem: "network", Name: "link_tx", Unit: "dropped", Kind: metrics.KindCounter, Help: "Transmitted packets dropped on the interface."}

	routeDefault = metrics.Desc{Subsystem: "network", Name: "route_default_info", Help: "Default route, value is always 1."}
	routeMetric  = metrics.Desc{Subsystem: "network", Name: "route_metric", Help: "Priority of the route; lower is preferred."}
	routeCount   = metrics.Desc{Subsystem: "network", Name: "routes", Help: "Number of routes per family and table."}

	addressInfo = metrics.Desc{Subsystem: "network", Name: "address_info", Help: "Address assigned to an interface, value is always 1."}
)

// RouteClient dumps kernel network state. *rtnl.Client implements it.
type RouteClient interface {
	Links(ctx context.Context) ([]rtnl.LinkInfo, error)
	Routes(ctx context.Context, filter rtnl.Filter) ([]rtnl.RouteInfo, error)
	Addresses(ctx context.Context, filter rtnl.Filter) ([]rtnl.AddressInfo, error)
}

// LinkCollector exports interfaces, routes and addresses.
type LinkCollector struct {
	client RouteClient
	logger *slog.Logger
}

// NewLinkCollector creates a LinkCollector.
func NewLinkCollector(client RouteClient, logger *slog.Logger) *LinkCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkCollector{client: client, logger: logger.With("component", "network")}
}

// Name implements metrics.Collector.
func (c *LinkCollector) Name() string { return metrics.CollectorNetlink }

// Collect runs the three dumps concurrently. Each dump fails on its own; the
// collector fails only when all three do, or when the kernel socket cannot
// be opened at all.
func (c *LinkCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	var (
		links                      []rtnl.LinkInfo
		routes                     []rtnl.RouteInfo
		addrs                      []rtnl.AddressInfo
		linkErr, routeErr, addrErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		links, linkErr = c.client.Links(ctx)
		return nil
	})
	g.Go(func() error {
		routes, routeErr = c.client.Routes(ctx, rtnl.Filter{})
		return nil
	})
	g.Go(func() error {
		addrs, addrErr = c.client.Addresses(ctx, rtnl.Filter{})
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{linkErr, routeErr, addrErr} {
		var connErr *rtnl.ConnectError
		if errors.As(err, &connErr) {
			return nil, fmt.Errorf("network: %w", err)
		}
	}
	if linkErr != nil && routeErr != nil && addrErr != nil {
		return nil, fmt.Errorf("network: all dumps failed: %w", errors.Join(linkErr, routeErr, addrErr))
	}

	var out []metrics.Metric
	names := make(deviceNames, len(links))
	if linkErr != nil {
		c.logger.Warn("link dump failed", "error", linkErr)
	} else {
		for _, l := range links {
			names[l.Index] = l.Name
			out = append(out, LinkMetrics(l)...)
		}
	}
	if routeErr != nil {
		c.logger.Warn("route dump failed", "error", routeErr)
	} else {
		out = append(out, RouteMetrics(routes, names)...)
	}
	if addrErr != nil {
		c.logger.Warn("address dump failed", "error", addrErr)
	} else {
		out = append(out, AddressMetrics(addrs, names)...)
	}
	return out, nil
}

// deviceNames maps interface indexes to names. Unknown indexes resolve to
// the decimal index so that routes stay attributable when the link dump
// failed.
type deviceNames map[int]string

func (n deviceNames) name(index int) string {
	if index == 0 {
		return ""
	}
	if s, ok := n[index]; ok {
		return s
	}
	return strconv.Itoa(index)
}

// LinkMetrics converts one interface.
func LinkMetrics(l rtnl.LinkInfo) []metrics.Metric {
	dev := l.Name
	up := l.OperState == rtnl.OperUp || (l.OperState == rtnl.OperUnknown && l.AdminUp)

	out := []metrics.Metric{
		linkUp.New(metrics.Bool(up), "device", dev),
		linkMTU.New(float64(l.MTU), "device", dev),
		linkInfo.New(1, "device", dev, "address", l.HardwareAddr.String(), "kind", l.Kind),
	}
	for _, s := range rtnl.OperStates() {
		out = append(out, linkOperState.New(metrics.Bool(l.OperState == s), "device", dev, "state", s.String()))
	}
	if l.HasStats {
		st := l.Stats
		out = append(out,
			linkRxBytes.New(float64(st.RxBytes), "device", dev),
			linkTxBytes.New(float64(st.TxBytes), "device", dev),
			linkRxPackets.New(float64(st.RxPackets), "device", dev),
			linkTxPackets.New(float64(st.TxPackets), "device", dev),
			linkRxErrors.New(float64(st.RxErrors), "device", dev),
			linkTxErrors.New(float64(st.TxErrors), "device", dev),
			linkRxDropped.New(float64(st.RxDropped), "device", dev),
			linkTxDropped.New(float64(st.TxDropped), "device", dev),
		)
	}
	return out
}

type routeKey struct {
	family, dst, device, table string
}

// RouteMetrics converts a route dump. The local table is left out. Routes
// that share destination, device and table are reported once with the
// lowest metric.
func RouteMetrics(routes []rtnl.RouteInfo, names map[int]string) []metrics.Metric {
	best := make(map[routeKey]uint32)
	counts := make(map[[2]string]int)
	defaults := make(map[[3]string]bool)

	for _, r := range routes {
		if r.Table == rtnl.TableLocal {
			continue
		}
		fam, table, dev := familyName(r.Family), tableName(r.Table), deviceNames(names).name(r.OutIndex)
		counts[[2]string{fam, table}]++

		k := routeKey{family: fam, dst: r.Dst.String(), device: dev, table: table}
		if m, ok := best[k]; !ok || r.Metric < m {
			best[k] = r.Metric
		}
		if r.IsDefault() {
			gw := ""
			if r.Gateway.IsValid() {
				gw = r.Gateway.String()
			}
			defaults[[3]string{fam, gw, dev}] = true
		}
	}

	out := make([]metrics.Metric, 0, len(best)+len(counts)+len(defaults))
	for k, m := range best {
		out = append(out, routeMetric.New(float64(m), "family", k.family, "destination", k.dst, "device", k.device, "table", k.table))
	}
	for k, n := range counts {
		out = append(out, routeCount.New(float64(n), "family", k[0], "table", k[1]))
	}
	for k := range defaults {
		out = append(out, routeDefault.New(1, "family", k[0], "gateway", k[1], "device", k[2]))
	}
	return out
}

// AddressMetrics converts an address dump.
func AddressMetrics(addrs []rtnl.AddressInfo, names map[int]string) []metrics.Metric {
	byIndex := rtnl.AddressMap(addrs)
	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	var out []metrics.Metric
	for _, idx := range indexes {
		dev := deviceNames(names).name(idx)
		for _, p := range byIndex[idx] {
			fam := familyName(rtnl.FamilyInet6)
			if p.Addr().Is4() {
				fam = familyName(rtnl.FamilyInet)
			}
			out = append(out, addressInfo.New(1, "device", dev, "family", fam, "address", p.String()))
		}
	}
	return out
}

func familyName(f uint8) string {
	switch f {
	case rtnl.FamilyInet:
		return "inet"
	case rtnl.FamilyInet6:
		return "inet6"
	default:
		return strconv.Itoa(int(f))
	}
}

func tableName(t uint32) string {
	switch t {
	case rtnl.TableMain:
		return "main"
	case rtnl.TableLocal:
		return "local"
	case 253:
		return "default"
	default:
		return strconv.FormatUint(uint64(t), 10)
	}
}
