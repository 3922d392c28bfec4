package rtnl

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
)

const (
	attrHeaderLen    = 4
	attrNested       = 0x8000
	attrNetByteOrder = 0x4000
	attrTypeMask     = 0x3fff
)

// MaxNestingDepth bounds how far Children descends into nested attributes.
const MaxNestingDepth = 8

var errAttrSize = errors.New("unexpected attribute size")

// Attribute is one type-length-value entry of an rtnetlink payload. Value
// aliases the frame buffer.
type Attribute struct {
	Type         uint16
	Nested       bool
	NetByteOrder bool
	Value        []byte

	depth int // nesting level; 0 for top-level attributes
}

// ParseAttributes walks a list of attributes with an explicit cursor. Each
// header is read only when four bytes remain, and each declared length must
// fit in what is left of b. Padding after the final attribute may be absent.
func ParseAttributes(b []byte) ([]Attribute, error) {
	var attrs []Attribute
	for off := 0; off < len(b); {
		rest := len(b) - off
		if rest < attrHeaderLen {
			return nil, &DecodeError{Offset: off, Reason: fmt.Sprintf("%d trailing bytes are shorter than an attribute header", rest)}
		}
		n := int(nativeEndian.Uint16(b[off : off+2]))
		if n < attrHeaderLen || n > rest {
			return nil, &DecodeError{Offset: off, Reason: fmt.Sprintf("attribute length %d out of range (%d bytes remain)", n, rest)}
		}
		t := nativeEndian.Uint16(b[off+2 : off+4])
		attrs = append(attrs, Attribute{
			Type:         t & attrTypeMask,
			Nested:       t&attrNested != 0,
			NetByteOrder: t&attrNetByteOrder != 0,
			Value:        b[off+attrHeaderLen : off+n],
		})
		off += align(n)
	}
	return attrs, nil
}

// Children walks the value as a nested attribute list. It fails once the
// children would sit deeper than MaxNestingDepth.
func (a Attribute) Children() ([]Attribute, error) {
	if a.depth >= MaxNestingDepth {
		return nil, &DecodeError{Reason: fmt.Sprintf("attributes nested deeper than %d levels", MaxNestingDepth)}
	}
	children, err := ParseAttributes(a.Value)
	if err != nil {
		return nil, err
	}
	for i := range children {
		children[i].depth = a.depth + 1
	}
	return children, nil
}

func (a Attribute) Uint8() (uint8, error) {
	if len(a.Value) != 1 {
		return 0, errAttrSize
	}
	return a.Value[0], nil
}

func (a Attribute) Uint32() (uint32, error) {
	if len(a.Value) != 4 {
		return 0, errAttrSize
	}
	return nativeEndian.Uint32(a.Value), nil
}

// Text returns the value as a string without its NUL terminator.
func (a Attribute) Text() string {
	if i := bytes.IndexByte(a.Value, 0); i >= 0 {
		return string(a.Value[:i])
	}
	return string(a.Value)
}

// Addr interprets the value as an IPv4 or IPv6 address.
func (a Attribute) Addr() (netip.Addr, error) {
	addr, ok := netip.AddrFromSlice(a.Value)
	if !ok {
		return netip.Addr{}, errAttrSize
	}
	return addr, nil
}

func (a Attribute) uint64s(n int) ([]uint64, error) {
	if len(a.Value) < n*8 {
		return nil, errAttrSize
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = nativeEndian.Uint64(a.Value[i*8:])
	}
	return out, nil
}

func (a Attribute) uint32s(n int) ([]uint32, error) {
	if len(a.Value) < n*4 {
		return nil, errAttrSize
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = nativeEndian.Uint32(a.Value[i*4:])
	}
	return out, nil
}
