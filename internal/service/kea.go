package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var keaStats = []struct {
	stat string
	desc metrics.Desc
}{
	{"pkt4-received", metrics.Desc{Subsystem: "dhcp", Name: "received", Unit: "packets", Kind: metrics.KindCounter, Help: "DHCPv4 packets received by Kea."}},
	{"pkt4-sent", metrics.Desc{Subsystem: "dhcp", Name: "sent", Unit: "packets", Kind: metrics.KindCounter, Help: "DHCPv4 packets sent by Kea."}},
	{"pkt4-ack-sent", metrics.Desc{Subsystem: "dhcp", Name: "ack_sent", Unit: "packets", Kind: metrics.KindCounter, Help: "DHCPACK packets sent by Kea."}},
	{"pkt4-nak-sent", metrics.Desc{Subsystem: "dhcp", Name: "nak_sent", Unit: "packets", Kind: metrics.KindCounter, Help: "DHCPNAK packets sent by Kea."}},
	{"v4-allocation-fail", metrics.Desc{Subsystem: "dhcp", Name: "addr_fail", Kind: metrics.KindCounter, Help: "DHCPv4 address allocation failures."}},
}

type keaCommand struct {
	Command string `json:"command"`
}

type keaResponse struct {
	Result    int                            `json:"result"`
	Text      string                         `json:"text"`
	Arguments map[string][][]json.RawMessage `json:"arguments"`
}

// KeaCollector reads DHCPv4 statistics from the Kea control socket.
type KeaCollector struct {
	cfg    SocketConfig
	logger *slog.Logger
}

// NewKeaCollector creates a KeaCollector.
func NewKeaCollector(cfg SocketConfig, logger *slog.Logger) *KeaCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeaCollector{cfg: cfg, logger: logger.With("component", "service")}
}

// Name implements metrics.Collector.
func (c *KeaCollector) Name() string { return metrics.CollectorKea }

// Collect implements metrics.Collector.
func (c *KeaCollector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	resp, err := c.query(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Result != 0 {
		return nil, fmt.Errorf("service: kea: result %d: %s", resp.Result, resp.Text)
	}

	var out []metrics.Metric
	for _, s := range keaStats {
		v, ok := latestSample(resp.Arguments[s.stat])
		if !ok {
			continue
		}
		out = append(out, s.desc.New(v))
	}
	return out, nil
}

func (c *KeaCollector) query(ctx context.Context) (*keaResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.cfg.Socket)
	if err != nil {
		return nil, fmt.Errorf("service: kea: dial: %w", err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(keaCommand{Command: "statistic-get-all"}); err != nil {
		return nil, fmt.Errorf("service: kea: send: %w", err)
	}

	br := bufio.NewReader(conn)
	first, err := br.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("service: kea: read: %w", err)
	}

	dec := json.NewDecoder(br)
	// Behind the control agent the response is wrapped in an array.
	if bytes.Equal(first, []byte("[")) {
		var list []keaResponse
		if err := dec.Decode(&list); err != nil {
			return nil, fmt.Errorf("service: kea: decode: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("service: kea: empty response")
		}
		return &list[0], nil
	}
	var resp keaResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("service: kea: decode: %w", err)
	}
	return &resp, nil
}

// latestSample returns the value of the newest sample. Kea lists samples
// newest first as [value, timestamp] pairs.
func latestSample(samples [][]json.RawMessage) (float64, bool) {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(samples[0][0], &v); err != nil {
		return 0, false
	}
	return v, true
}
