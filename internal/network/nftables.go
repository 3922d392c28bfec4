package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var (
	nftSetBytes   = metrics.Desc{Subsystem: "network", Name: "nft_set_counter", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes counted by an nftables set element."}
	nftSetPackets = metrics.Desc{Subsystem: "network", Name: "nft_set_counter", Unit: "packets", Kind: metrics.KindCounter, Help: "Packets counted by an nftables set element."}
)

// SetCounter is the counter of one element of a named nftables set.
type SetCounter struct {
	Family  string
	Table   string
	Set     string
	Key     string
	Bytes   uint64
	Packets uint64
}

// SetCounterReader reads element counters from nftables sets.
type SetCounterReader interface {
	SetCounters(ctx context.Context) ([]SetCounter, error)
}

// NftCollector exports per-element counters of named nftables sets keyed by
// address, the usual way to account traffic per LAN host.
type NftCollector struct {
	reader SetCounterReader
	logger *slog.Logger
}

// NewNftCollector creates an NftCollector. A nil reader uses the kernel
// nftables interface.
func NewNftCollector(reader SetCounterReader, logger *slog.Logger) *NftCollector {
	if reader == nil {
		reader = kernelSets{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NftCollector{reader: reader, logger: logger.With("component", "network")}
}

// Name implements metrics.Collector.
func (c *NftCollector) Name() string { return metrics.CollectorNftables }

// Collect implements metrics.Collector. Lacking CAP_NET_ADMIN, or a kernel
// without nf_tables, is not an error; the collector then reports nothing.
func (c *NftCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	counters, err := c.reader.SetCounters(ctx)
	if errors.Is(err, os.ErrPermission) {
		c.logger.Debug("nftables not readable", "error", err)
		return nil, nil
	}
	if nftablesAbsent(err) {
		c.logger.Debug("nftables not available", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("network: nftables: %w", err)
	}

	out := make([]metrics.Metric, 0, 2*len(counters))
	for _, sc := range counters {
		labels := []string{"family", sc.Family, "table", sc.Table, "set", sc.Set, "key", sc.Key}
		out = append(out,
			nftSetBytes.New(float64(sc.Bytes), labels...),
			nftSetPackets.New(float64(sc.Packets), labels...),
		)
	}
	return out, nil
}

// nftablesAbsent reports whether err means the kernel has no nf_tables
// subsystem to ask.
func nftablesAbsent(err error) bool {
	for _, target := range []error{
		syscall.EPROTONOSUPPORT,
		syscall.EAFNOSUPPORT,
		syscall.EOPNOTSUPP,
		syscall.ENOENT,
		errors.ErrUnsupported,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
