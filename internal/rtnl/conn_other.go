//go:build !linux

package rtnl

import (
	"context"
	"errors"
)

// SocketDialer is unavailable outside Linux.
type SocketDialer struct{}

// NewSocketDialer returns a Dialer whose Dial always fails.
func NewSocketDialer(cfg Config) *SocketDialer {
	return &SocketDialer{}
}

// Dial fails with *ConnectError.
func (d *SocketDialer) Dial(ctx context.Context) (Conn, error) {
	return nil, &ConnectError{Err: errors.ErrUnsupported}
}
