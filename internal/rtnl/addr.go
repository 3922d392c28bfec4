package rtnl

import (
	"fmt"
	"net/netip"
	"slices"
)

// Address attribute types (IFA_*).
const (
	ifaAddress = 1
	ifaLocal   = 2
	ifaLabel   = 3
)

// AddressInfo is one interface address from an address dump.
type AddressInfo struct {
	Index  int
	Family uint8
	Prefix netip.Prefix
	Scope  uint8
	Label  string
}

// DecodeAddress decodes the payload of an RTM_NEWADDR frame. IFA_LOCAL wins
// over IFA_ADDRESS, which holds the peer on point-to-point links.
func DecodeAddress(payload []byte) (AddressInfo, error) {
	if len(payload) < ifAddrLen {
		return AddressInfo{}, &DecodeError{Offset: headerLen, Reason: fmt.Sprintf("address header truncated to %d bytes", len(payload))}
	}

	ai := AddressInfo{
		Family: payload[0],
		Scope:  payload[3],
		Index:  int(nativeEndian.Uint32(payload[4:8])),
	}
	prefixLen := int(payload[1])

	attrs, err := ParseAttributes(payload[ifAddrLen:])
	if err != nil {
		return AddressInfo{}, offsetBy(err, headerLen+ifAddrLen)
	}

	var addr, local netip.Addr
	for _, a := range attrs {
		switch a.Type {
		case ifaAddress:
			if v, err := a.Addr(); err == nil {
				addr = v
			}
		case ifaLocal:
			if v, err := a.Addr(); err == nil {
				local = v
			}
		case ifaLabel:
			ai.Label = a.Text()
		}
	}
	if local.IsValid() {
		addr = local
	}
	if addr.IsValid() {
		ai.Prefix = netip.PrefixFrom(addr, prefixLen)
	}
	return ai, nil
}

// AddressMap groups addresses by interface index. Entries without a usable
// address are dropped and each list is sorted.
func AddressMap(addrs []AddressInfo) map[int][]netip.Prefix {
	m := make(map[int][]netip.Prefix)
	for _, a := range addrs {
		if !a.Prefix.IsValid() {
			continue
		}
		m[a.Index] = append(m[a.Index], a.Prefix)
	}
	for _, list := range m {
		slices.SortFunc(list, func(a, b netip.Prefix) int {
			if c := a.Addr().Compare(b.Addr()); c != 0 {
				return c
			}
			return a.Bits() - b.Bits()
		})
	}
	return m
}
