//go:build linux

package network

import (
	"context"
	"errors"
	"strconv"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// netlinkNeighbors lists the neighbour table with vishvananda/netlink.
type netlinkNeighbors struct{}

func (netlinkNeighbors) Neighbors(ctx context.Context) ([]Neighbor, error) {
	var incomplete bool

	links, err := netlink.LinkList()
	if errors.Is(err, netlink.ErrDumpInterrupted) {
		incomplete = true
	} else if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		names[attrs.Index] = attrs.Name
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	neighs, err := netlink.NeighList(0, netlink.FAMILY_ALL)
	if errors.Is(err, netlink.ErrDumpInterrupted) {
		incomplete = true
	} else if err != nil {
		return nil, err
	}

	out := make([]Neighbor, 0, len(neighs))
	for _, n := range neighs {
		var fam string
		switch n.Family {
		case unix.AF_INET:
			fam = "inet"
		case unix.AF_INET6:
			fam = "inet6"
		default:
			// Bridge FDB entries share the table; they are not neighbours.
			continue
		}
		dev, ok := names[n.LinkIndex]
		if !ok {
			dev = strconv.Itoa(n.LinkIndex)
		}
		out = append(out, Neighbor{Device: dev, Family: fam, State: nudState(n.State)})
	}
	if incomplete {
		return out, ErrNeighborsIncomplete
	}
	return out, nil
}

func nudState(s int) string {
	switch s {
	case netlink.NUD_NONE:
		return "none"
	case netlink.NUD_INCOMPLETE:
		return "incomplete"
	case netlink.NUD_REACHABLE:
		return "reachable"
	case netlink.NUD_STALE:
		return "stale"
	case netlink.NUD_DELAY:
		return "delay"
	case netlink.NUD_PROBE:
		return "probe"
	case netlink.NUD_FAILED:
		return "failed"
	case netlink.NUD_NOARP:
		return "noarp"
	case netlink.NUD_PERMANENT:
		return "permanent"
	default:
		return "0x" + strconv.FormatInt(int64(s), 16)
	}
}
