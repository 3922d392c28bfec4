package rtnl

import (
	"fmt"
	"net"
)

// Link attribute types (IFLA_*).
const (
	iflaAddress   = 1
	iflaIfname    = 3
	iflaMTU       = 4
	iflaStats     = 7
	iflaOperstate = 16
	iflaLinkinfo  = 18
	iflaStats64   = 23

	iflaInfoKind = 1
)

const iffUp = 0x1

// OperState is the RFC 2863 operational state of an interface.
type OperState uint8

const (
	OperUnknown OperState = iota
	OperNotPresent
	OperDown
	OperLowerLayerDown
	OperTesting
	OperDormant
	OperUp
)

var operStateNames = [...]string{
	OperUnknown:        "unknown",
	OperNotPresent:     "notpresent",
	OperDown:           "down",
	OperLowerLayerDown: "lowerlayerdown",
	OperTesting:        "testing",
	OperDormant:        "dormant",
	OperUp:             "up",
}

func (s OperState) String() string {
	if int(s) < len(operStateNames) {
		return operStateNames[s]
	}
	return fmt.Sprintf("operstate(%d)", uint8(s))
}

// OperStates lists every known state in numeric order.
func OperStates() []OperState {
	return []OperState{OperUnknown, OperNotPresent, OperDown, OperLowerLayerDown, OperTesting, OperDormant, OperUp}
}

// LinkStats holds the interface counters in rtnl_link_stats64 order.
type LinkStats struct {
	RxPackets uint64
	TxPackets uint64
	RxBytes   uint64
	TxBytes   uint64
	RxErrors  uint64
	TxErrors  uint64
	RxDropped uint64
	TxDropped uint64
}

// LinkInfo is one interface from a link dump.
type LinkInfo struct {
	Index        int
	Name         string
	Kind         string
	Flags        uint32
	AdminUp      bool
	OperState    OperState
	MTU          uint32
	HardwareAddr net.HardwareAddr
	Stats        LinkStats
	HasStats     bool
}

// DecodeLink decodes the payload of an RTM_NEWLINK frame. Attributes with
// unknown types are skipped, as are known attributes whose value has an
// unexpected size. A header or attribute length that does not fit the
// payload fails the whole record.
func DecodeLink(payload []byte) (LinkInfo, error) {
	if len(payload) < ifInfoLen {
		return LinkInfo{}, &DecodeError{Offset: headerLen, Reason: fmt.Sprintf("link header truncated to %d bytes", len(payload))}
	}

	var li LinkInfo
	li.Index = int(int32(nativeEndian.Uint32(payload[4:8])))
	li.Flags = nativeEndian.Uint32(payload[8:12])
	li.AdminUp = li.Flags&iffUp != 0

	attrs, err := ParseAttributes(payload[ifInfoLen:])
	if err != nil {
		return LinkInfo{}, offsetBy(err, headerLen+ifInfoLen)
	}

	var stats32 []uint32
	for _, a := range attrs {
		switch a.Type {
		case iflaIfname:
			li.Name = a.Text()
		case iflaAddress:
			if len(a.Value) > 0 {
				li.HardwareAddr = net.HardwareAddr(append([]byte(nil), a.Value...))
			}
		case iflaMTU:
			if v, err := a.Uint32(); err == nil {
				li.MTU = v
			}
		case iflaOperstate:
			if v, err := a.Uint8(); err == nil {
				li.OperState = OperState(v)
			}
		case iflaStats64:
			if v, err := a.uint64s(8); err == nil {
				li.Stats = statsFrom(v)
				li.HasStats = true
			}
		case iflaStats:
			if v, err := a.uint32s(8); err == nil {
				stats32 = v
			}
		case iflaLinkinfo:
			if kind, ok := linkKind(a); ok {
				li.Kind = kind
			}
		}
	}

	if !li.HasStats && stats32 != nil {
		wide := make([]uint64, len(stats32))
		for i, v := range stats32 {
			wide[i] = uint64(v)
		}
		li.Stats = statsFrom(wide)
		li.HasStats = true
	}
	return li, nil
}

func statsFrom(v []uint64) LinkStats {
	return LinkStats{
		RxPackets: v[0],
		TxPackets: v[1],
		RxBytes:   v[2],
		TxBytes:   v[3],
		RxErrors:  v[4],
		TxErrors:  v[5],
		RxDropped: v[6],
		TxDropped: v[7],
	}
}

// linkKind extracts IFLA_INFO_KIND from the nested IFLA_LINKINFO list. A
// malformed nested list only loses the kind.
func linkKind(a Attribute) (string, bool) {
	children, err := a.Children()
	if err != nil {
		return "", false
	}
	for _, c := range children {
		if c.Type == iflaInfoKind {
			return c.Text(), true
		}
	}
	return "", false
}

// offsetBy shifts a DecodeError so its offset is relative to the frame.
func offsetBy(err error, delta int) error {
	if de, ok := err.(*DecodeError); ok {
		return &DecodeError{Offset: de.Offset + delta, Reason: de.Reason}
	}
	return err
}
