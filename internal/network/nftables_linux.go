//go:build linux

package network

import (
	"context"
	"fmt"
	"net"

	"github.com/google/nftables"
)

// kernelSets reads set counters with google/nftables.
type kernelSets struct{}

func (kernelSets) SetCounters(ctx context.Context) ([]SetCounter, error) {
	conn, err := nftables.New()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	tables, err := conn.ListTables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var out []SetCounter
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sets, err := conn.GetSets(t)
		if err != nil {
			return nil, fmt.Errorf("list sets of %s: %w", t.Name, err)
		}
		for _, s := range sets {
			if s.Anonymous || s.IsMap {
				continue
			}
			format := keyFormatter(s.KeyType)
			if format == nil {
				continue
			}
			elems, err := conn.GetSetElements(s)
			if err != nil {
				return nil, fmt.Errorf("list elements of %s/%s: %w", t.Name, s.Name, err)
			}
			for _, e := range elems {
				if e.Counter == nil || e.IntervalEnd {
					continue
				}
				out = append(out, SetCounter{
					Family:  tableFamily(t.Family),
					Table:   t.Name,
					Set:     s.Name,
					Key:     format(e.Key),
					Bytes:   e.Counter.Bytes,
					Packets: e.Counter.Packets,
				})
			}
		}
	}
	return out, nil
}

// keyFormatter returns the printer for address keyed sets and nil for every
// other key type.
func keyFormatter(t nftables.SetDatatype) func([]byte) string {
	switch t.Name {
	case nftables.TypeIPAddr.Name, nftables.TypeIP6Addr.Name:
		return func(b []byte) string { return net.IP(b).String() }
	case nftables.TypeEtherAddr.Name:
		return func(b []byte) string {
			// Ether keys are padded to the register size.
			if len(b) > 6 {
				b = b[:6]
			}
			return net.HardwareAddr(b).String()
		}
	default:
		return nil
	}
}

func tableFamily(f nftables.TableFamily) string {
	switch f {
	case nftables.TableFamilyIPv4:
		return "ip"
	case nftables.TableFamilyIPv6:
		return "ip6"
	case nftables.TableFamilyINet:
		return "inet"
	case nftables.TableFamilyARP:
		return "arp"
	case nftables.TableFamilyBridge:
		return "bridge"
	case nftables.TableFamilyNetdev:
		return "netdev"
	default:
		return fmt.Sprintf("%d", uint8(f))
	}
}
