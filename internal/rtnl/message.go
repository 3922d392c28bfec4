package rtnl

import (
	"encoding/binary"
	"fmt"
)

// Multi-byte fields in netlink headers and rtnetlink payloads are encoded in
// host byte order, matching the kernel ABI. A build for a big-endian target
// decodes correctly on that target only; replies captured on one architecture
// cannot be replayed on another of different endianness.
var nativeEndian = binary.NativeEndian

const (
	headerLen  = 16 // struct nlmsghdr
	ifInfoLen  = 16 // struct ifinfomsg
	ifAddrLen  = 8  // struct ifaddrmsg
	rtMsgLen   = 12 // struct rtmsg
	alignBytes = 4
)

// Netlink control and rtnetlink message types.
const (
	TypeNoop    uint16 = 0x1
	TypeError   uint16 = 0x2
	TypeDone    uint16 = 0x3
	TypeOverrun uint16 = 0x4

	TypeNewLink  uint16 = 16
	TypeGetLink  uint16 = 18
	TypeNewAddr  uint16 = 20
	TypeGetAddr  uint16 = 22
	TypeNewRoute uint16 = 24
	TypeGetRoute uint16 = 26
)

// Netlink header flags.
const (
	FlagRequest  uint16 = 0x1
	FlagMulti    uint16 = 0x2
	FlagAck      uint16 = 0x4
	FlagEcho     uint16 = 0x8
	FlagDumpIntr uint16 = 0x10
	FlagRoot     uint16 = 0x100
	FlagMatch    uint16 = 0x200
	FlagDump            = FlagRoot | FlagMatch
)

// Address families used in request filters.
const (
	FamilyUnspec uint8 = 0
	FamilyInet   uint8 = 2
	FamilyInet6  uint8 = 10
)

func align(n int) int {
	return (n + alignBytes - 1) &^ (alignBytes - 1)
}

// RequestKind selects which kernel table a dump request enumerates.
type RequestKind uint8

const (
	KindLink RequestKind = iota + 1
	KindAddress
	KindRoute
)

func (k RequestKind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindAddress:
		return "address"
	case KindRoute:
		return "route"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k RequestKind) requestType() uint16 {
	switch k {
	case KindLink:
		return TypeGetLink
	case KindAddress:
		return TypeGetAddr
	case KindRoute:
		return TypeGetRoute
	}
	return 0
}

// ReplyType is the message type of the records answering a request of kind k.
func (k RequestKind) ReplyType() uint16 {
	switch k {
	case KindLink:
		return TypeNewLink
	case KindAddress:
		return TypeNewAddr
	case KindRoute:
		return TypeNewRoute
	}
	return 0
}

func (k RequestKind) payloadLen() int {
	switch k {
	case KindLink:
		return ifInfoLen
	case KindAddress:
		return ifAddrLen
	case KindRoute:
		return rtMsgLen
	}
	return 0
}

func kindForRequestType(t uint16) (RequestKind, bool) {
	switch t {
	case TypeGetLink:
		return KindLink, true
	case TypeGetAddr:
		return KindAddress, true
	case TypeGetRoute:
		return KindRoute, true
	}
	return 0, false
}

// Filter narrows a dump request. The zero value matches everything.
// Index is carried by link and address requests; route messages have no
// interface field, so it is ignored for KindRoute.
type Filter struct {
	Family uint8
	Index  int32
}

// RequestMessage is a decoded dump request.
type RequestMessage struct {
	Kind   RequestKind
	Type   uint16
	Flags  uint16
	Seq    uint32
	PID    uint32
	Filter Filter
}

// Encode builds the wire form of a dump request of the given kind. The
// result depends only on its arguments.
func Encode(kind RequestKind, filter Filter, seq uint32) ([]byte, error) {
	plen := kind.payloadLen()
	if plen == 0 {
		return nil, fmt.Errorf("rtnl: encode: unknown request kind %d", uint8(kind))
	}

	b := make([]byte, headerLen+plen)
	nativeEndian.PutUint32(b[0:4], uint32(len(b)))
	nativeEndian.PutUint16(b[4:6], kind.requestType())
	nativeEndian.PutUint16(b[6:8], FlagRequest|FlagDump)
	nativeEndian.PutUint32(b[8:12], seq)
	// PID 0 lets the kernel assign the port id.
	nativeEndian.PutUint32(b[12:16], 0)

	p := b[headerLen:]
	p[0] = filter.Family
	switch kind {
	case KindLink:
		nativeEndian.PutUint32(p[4:8], uint32(filter.Index))
	case KindAddress:
		nativeEndian.PutUint32(p[4:8], uint32(filter.Index))
	}
	return b, nil
}

// DecodeRequest parses a request produced by Encode.
func DecodeRequest(b []byte) (RequestMessage, error) {
	if len(b) < headerLen {
		return RequestMessage{}, &DecodeError{Offset: 0, Reason: fmt.Sprintf("request of %d bytes is shorter than a header", len(b))}
	}
	n := int(nativeEndian.Uint32(b[0:4]))
	if n < headerLen || n > len(b) {
		return RequestMessage{}, &DecodeError{Offset: 0, Reason: fmt.Sprintf("request length %d out of range (buffer %d)", n, len(b))}
	}

	m := RequestMessage{
		Type:  nativeEndian.Uint16(b[4:6]),
		Flags: nativeEndian.Uint16(b[6:8]),
		Seq:   nativeEndian.Uint32(b[8:12]),
		PID:   nativeEndian.Uint32(b[12:16]),
	}
	kind, ok := kindForRequestType(m.Type)
	if !ok {
		return RequestMessage{}, &DecodeError{Offset: 4, Reason: fmt.Sprintf("unknown request type %d", m.Type)}
	}
	m.Kind = kind

	p := b[headerLen:n]
	if len(p) < kind.payloadLen() {
		return RequestMessage{}, &DecodeError{Offset: headerLen, Reason: fmt.Sprintf("%s request payload truncated to %d bytes", kind, len(p))}
	}
	m.Filter.Family = p[0]
	if kind != KindRoute {
		m.Filter.Index = int32(nativeEndian.Uint32(p[4:8]))
	}
	return m, nil
}

// ReplyFrame is one netlink message read from the socket. Payload aliases the
// receive buffer and is only valid until the next receive.
type ReplyFrame struct {
	Length  uint32
	Type    uint16
	Flags   uint16
	Seq     uint32
	PID     uint32
	Payload []byte
}

// ParseFrames splits a received datagram into frames. Every declared length
// is checked against the bytes that remain before it is used.
func ParseFrames(b []byte) ([]ReplyFrame, error) {
	var frames []ReplyFrame
	for off := 0; off < len(b); {
		rest := len(b) - off
		if rest < headerLen {
			return nil, &DecodeError{Offset: off, Reason: fmt.Sprintf("%d trailing bytes are shorter than a header", rest)}
		}
		n := int(nativeEndian.Uint32(b[off : off+4]))
		if n < headerLen || n > rest {
			return nil, &DecodeError{Offset: off, Reason: fmt.Sprintf("frame length %d out of range (%d bytes remain)", n, rest)}
		}
		frames = append(frames, ReplyFrame{
			Length:  uint32(n),
			Type:    nativeEndian.Uint16(b[off+4 : off+6]),
			Flags:   nativeEndian.Uint16(b[off+6 : off+8]),
			Seq:     nativeEndian.Uint32(b[off+8 : off+12]),
			PID:     nativeEndian.Uint32(b[off+12 : off+16]),
			Payload: b[off+headerLen : off+n],
		})
		off += align(n)
	}
	return frames, nil
}

// frameError extracts the errno carried by an error or done frame. A zero
// errno yields nil.
func frameError(f ReplyFrame) error {
	if len(f.Payload) < 4 {
		if f.Type == TypeError {
			return &DecodeError{Reason: "error frame without errno"}
		}
		return nil
	}
	code := int32(nativeEndian.Uint32(f.Payload[0:4]))
	if code == 0 {
		return nil
	}
	if code < 0 {
		code = -code
	}
	return &KernelError{Errno: errnoOf(code)}
}
