package network

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
)

type mockSetReader struct {
	counters []SetCounter
	err      error
}

func (m mockSetReader) SetCounters(context.Context) ([]SetCounter, error) {
	return m.counters, m.err
}

func TestNftCollector_Collect(t *testing.T) {
	reader := mockSetReader{counters: []SetCounter{
		{Family: "inet", Table: "accounting", Set: "lan_hosts", Key: "192.168.1.10", Bytes: 4096, Packets: 12},
		{Family: "inet", Table: "accounting", Set: "lan_hosts", Key: "192.168.1.11", Bytes: 0, Packets: 0},
	}}
	c := NewNftCollector(reader, discardLogger())

	ms, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(ms) != 4 {
		t.Fatalf("Collect() returned %d metrics, want 4", len(ms))
	}
	wantValue(t, ms, 4096, "homerouter_network_nft_set_counter_bytes_total", "set", "lan_hosts", "key", "192.168.1.10")
	wantValue(t, ms, 12, "homerouter_network_nft_set_counter_packets_total", "table", "accounting", "key", "192.168.1.10")
}

func TestNftCollector_PermissionDenied(t *testing.T) {
	reader := mockSetReader{err: fmt.Errorf("open: %w", syscall.EPERM)}
	if !errors.Is(reader.err, os.ErrPermission) {
		t.Fatal("EPERM does not match os.ErrPermission")
	}

	ms, err := NewNftCollector(reader, discardLogger()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v, want nil", err)
	}
	if len(ms) != 0 {
		t.Errorf("Collect() returned %d metrics, want none", len(ms))
	}
}

func TestNftCollector_NftablesUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"protocol not supported", fmt.Errorf("list tables: %w", syscall.EPROTONOSUPPORT)},
		{"family not supported", fmt.Errorf("open: %w", syscall.EAFNOSUPPORT)},
		{"operation not supported", fmt.Errorf("list tables: %w", syscall.EOPNOTSUPP)},
		{"no such subsystem", fmt.Errorf("list tables: %w", syscall.ENOENT)},
		{"unsupported platform", errors.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, err := NewNftCollector(mockSetReader{err: tt.err}, discardLogger()).Collect(context.Background())
			if err != nil {
				t.Fatalf("Collect() error = %v, want nil", err)
			}
			if len(ms) != 0 {
				t.Errorf("Collect() returned %d metrics, want none", len(ms))
			}
		})
	}
}

func TestNftCollector_Error(t *testing.T) {
	reader := mockSetReader{err: errors.New("list tables: no buffer space")}
	if _, err := NewNftCollector(reader, discardLogger()).Collect(context.Background()); err == nil {
		t.Fatal("Collect() expected error")
	}
}
