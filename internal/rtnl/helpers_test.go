package rtnl

import (
	"bytes"
	"log/slog"
	"net/netip"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

// attr encodes one attribute including its padding.
func attr(typ uint16, value []byte) []byte {
	n := attrHeaderLen + len(value)
	b := make([]byte, align(n))
	nativeEndian.PutUint16(b[0:2], uint16(n))
	nativeEndian.PutUint16(b[2:4], typ)
	copy(b[attrHeaderLen:], value)
	return b
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	nativeEndian.PutUint32(b, v)
	return b
}

func cstr(s string) []byte {
	return append([]byte(s), 0)
}

func u64s(v ...uint64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		nativeEndian.PutUint64(b[i*8:], x)
	}
	return b
}

func addrBytes(s string) []byte {
	return netip.MustParseAddr(s).AsSlice()
}

// frame encodes one netlink message with the given payload parts.
func frame(typ, flags uint16, seq uint32, parts ...[]byte) []byte {
	body := bytes.Join(parts, nil)
	n := headerLen + len(body)
	b := make([]byte, align(n))
	nativeEndian.PutUint32(b[0:4], uint32(n))
	nativeEndian.PutUint16(b[4:6], typ)
	nativeEndian.PutUint16(b[6:8], flags)
	nativeEndian.PutUint32(b[8:12], seq)
	copy(b[headerLen:], body)
	return b
}

func doneFrame(seq uint32) []byte {
	return frame(TypeDone, FlagMulti, seq, u32(0))
}

func errorFrame(seq uint32, errno int32) []byte {
	return frame(TypeError, 0, seq, u32(uint32(-errno)), make([]byte, headerLen))
}

func ifinfo(index int32, flags uint32) []byte {
	b := make([]byte, ifInfoLen)
	nativeEndian.PutUint32(b[4:8], uint32(index))
	nativeEndian.PutUint32(b[8:12], flags)
	return b
}

type testLink struct {
	index int32
	name  string
	up    bool
	oper  OperState
	mtu   uint32
	stats LinkStats
}

func (l testLink) payload() []byte {
	var flags uint32
	if l.up {
		flags = iffUp
	}
	s := l.stats
	return bytes.Join([][]byte{
		ifinfo(l.index, flags),
		attr(iflaIfname, cstr(l.name)),
		attr(iflaMTU, u32(l.mtu)),
		attr(iflaOperstate, []byte{byte(l.oper)}),
		attr(iflaStats64, u64s(s.RxPackets, s.TxPackets, s.RxBytes, s.TxBytes, s.RxErrors, s.TxErrors, s.RxDropped, s.TxDropped)),
	}, nil)
}

func rtmsg(family, dstLen, table, protocol, scope, typ uint8) []byte {
	return []byte{family, dstLen, 0, 0, table, protocol, scope, typ, 0, 0, 0, 0}
}

func ifaddrmsg(family, prefixLen, scope uint8, index uint32) []byte {
	b := []byte{family, prefixLen, 0, scope, 0, 0, 0, 0}
	nativeEndian.PutUint32(b[4:8], index)
	return b
}
