package rtnl

import "context"

// Conn is one routing socket. It is used for a single request and closed
// after its reply has been drained.
type Conn interface {
	// Send writes a complete request. A short write fails with *SendError.
	Send(b []byte) error
	// Receive blocks for the next datagram, at most for the configured
	// receive timeout, and fails with *TimeoutError when none arrives.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens routing sockets. Dial fails with *ConnectError.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}
