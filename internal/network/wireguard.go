package network

import (
	"context"
	"fmt"
	"log/slog"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var (
	wgReceive   = metrics.Desc{Subsystem: "wireguard", Name: "peer_receive", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes received from the WireGuard peer."}
	wgTransmit  = metrics.Desc{Subsystem: "wireguard", Name: "peer_transmit", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes sent to the WireGuard peer."}
	wgHandshake = metrics.Desc{Subsystem: "wireguard", Name: "peer_last_handshake", Unit: "seconds", Help: "Unix time of the last handshake with the peer, 0 if none."}
)

// DeviceClient lists WireGuard devices. *wgctrl.Client implements it.
type DeviceClient interface {
	Devices() ([]*wgtypes.Device, error)
	Close() error
}

// WireGuardCollector reports per-peer traffic and handshake times.
type WireGuardCollector struct {
	open   func() (DeviceClient, error)
	logger *slog.Logger
}

// NewWireGuardCollector creates a WireGuardCollector. A nil open function
// uses wgctrl.
func NewWireGuardCollector(open func() (DeviceClient, error), logger *slog.Logger) *WireGuardCollector {
	if open == nil {
		open = func() (DeviceClient, error) { return wgctrl.New() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WireGuardCollector{open: open, logger: logger.With("component", "network")}
}

// Name implements metrics.Collector.
func (c *WireGuardCollector) Name() string { return metrics.CollectorWireGuard }

// Collect opens a fresh client for every pass.
func (c *WireGuardCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	client, err := c.open()
	if err != nil {
		return nil, fmt.Errorf("network: wireguard: open: %w", err)
	}
	defer client.Close()

	devices, err := client.Devices()
	if err != nil {
		return nil, fmt.Errorf("network: wireguard: devices: %w", err)
	}

	var out []metrics.Metric
	for _, d := range devices {
		for _, p := range d.Peers {
			key := p.PublicKey.String()
			var hs float64
			if !p.LastHandshakeTime.IsZero() {
				hs = float64(p.LastHandshakeTime.Unix())
			}
			out = append(out,
				wgReceive.New(float64(p.ReceiveBytes), "device", d.Name, "public_key", key),
				wgTransmit.New(float64(p.TransmitBytes), "device", d.Name, "public_key", key),
				wgHandshake.New(hs, "device", d.Name, "public_key", key),
			)
		}
	}
	return out, nil
}
