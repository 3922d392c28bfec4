package rtnl

import (
	"fmt"
	"net/netip"
)

// Route attribute types (RTA_*).
const (
	rtaDst      = 1
	rtaOif      = 4
	rtaGateway  = 5
	rtaPriority = 6
	rtaPrefsrc  = 7
	rtaTable    = 15
)

// Well-known routing tables.
const (
	TableMain  = 254
	TableLocal = 255
)

// RouteInfo is one entry from a route dump.
type RouteInfo struct {
	Family   uint8
	Dst      netip.Prefix
	Gateway  netip.Addr
	PrefSrc  netip.Addr
	OutIndex int
	Table    uint32
	Protocol uint8
	Scope    uint8
	Type     uint8
	Metric   uint32
}

// IsDefault reports whether the route matches every destination.
func (r RouteInfo) IsDefault() bool {
	return r.Dst.IsValid() && r.Dst.Bits() == 0
}

// DecodeRoute decodes the payload of an RTM_NEWROUTE frame with the same
// tolerance rules as DecodeLink. A route without RTA_DST has the unspecified
// address of its family as destination, which is how the kernel reports
// default routes.
func DecodeRoute(payload []byte) (RouteInfo, error) {
	if len(payload) < rtMsgLen {
		return RouteInfo{}, &DecodeError{Offset: headerLen, Reason: fmt.Sprintf("route header truncated to %d bytes", len(payload))}
	}

	r := RouteInfo{
		Family:   payload[0],
		Table:    uint32(payload[4]),
		Protocol: payload[5],
		Scope:    payload[6],
		Type:     payload[7],
	}
	dstLen := int(payload[1])

	attrs, err := ParseAttributes(payload[rtMsgLen:])
	if err != nil {
		return RouteInfo{}, offsetBy(err, headerLen+rtMsgLen)
	}

	var dst netip.Addr
	for _, a := range attrs {
		switch a.Type {
		case rtaDst:
			if v, err := a.Addr(); err == nil {
				dst = v
			}
		case rtaGateway:
			if v, err := a.Addr(); err == nil {
				r.Gateway = v
			}
		case rtaPrefsrc:
			if v, err := a.Addr(); err == nil {
				r.PrefSrc = v
			}
		case rtaOif:
			if v, err := a.Uint32(); err == nil {
				r.OutIndex = int(v)
			}
		case rtaPriority:
			if v, err := a.Uint32(); err == nil {
				r.Metric = v
			}
		case rtaTable:
			if v, err := a.Uint32(); err == nil {
				r.Table = v
			}
		}
	}

	if !dst.IsValid() {
		switch r.Family {
		case FamilyInet:
			dst = netip.IPv4Unspecified()
		case FamilyInet6:
			dst = netip.IPv6Unspecified()
		}
	}
	if dst.IsValid() {
		r.Dst = netip.PrefixFrom(dst, dstLen)
	}
	return r, nil
}
