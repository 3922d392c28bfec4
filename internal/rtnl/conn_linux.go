//go:build linux

package rtnl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// pollSlice bounds a single poll so that context cancellation is observed
// promptly without a wakeup descriptor.
const pollSlice = 50 * time.Millisecond

// SocketDialer opens NETLINK_ROUTE sockets.
type SocketDialer struct {
	timeout time.Duration
	bufSize int
}

// NewSocketDialer returns a Dialer for the running kernel. Config defaults
// are applied automatically.
func NewSocketDialer(cfg Config) *SocketDialer {
	cfg.ApplyDefaults()
	return &SocketDialer{timeout: cfg.ReceiveTimeout, bufSize: cfg.ReceiveBufferSize}
}

// Dial opens and binds a non-blocking routing socket.
func (d *SocketDialer) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, &ConnectError{Err: fmt.Errorf("socket: %w", err)}
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		unix.Close(fd)
		return nil, &ConnectError{Err: fmt.Errorf("bind: %w", err)}
	}
	return &socketConn{fd: fd, timeout: d.timeout, buf: make([]byte, d.bufSize)}, nil
}

type socketConn struct {
	fd      int
	timeout time.Duration
	buf     []byte
}

func (c *socketConn) Send(b []byte) error {
	kernel := &unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	deadline := time.Now().Add(c.timeout)
	for {
		n, err := unix.SendmsgN(c.fd, b, nil, kernel, 0)
		switch {
		case err == nil:
			if n != len(b) {
				return &SendError{Written: n, Want: len(b)}
			}
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if err := c.wait(context.Background(), unix.POLLOUT, deadline); err != nil {
				return &SendError{Want: len(b), Err: err}
			}
		default:
			return &SendError{Want: len(b), Err: err}
		}
	}
}

func (c *socketConn) Receive(ctx context.Context) ([]byte, error) {
	deadline := time.Now().Add(c.timeout)
	for {
		// Peek with MSG_TRUNC to learn the datagram size before consuming it.
		n, _, err := unix.Recvfrom(c.fd, c.buf, unix.MSG_PEEK|unix.MSG_TRUNC)
		switch {
		case err == nil:
			if n > len(c.buf) {
				c.buf = make([]byte, align(n))
			}
			n, from, err := unix.Recvfrom(c.fd, c.buf, 0)
			if err != nil {
				return nil, fmt.Errorf("rtnl: receive: %w", err)
			}
			if sa, ok := from.(*unix.SockaddrNetlink); ok && sa.Pid != 0 {
				// Not from the kernel; ignore it.
				continue
			}
			out := make([]byte, n)
			copy(out, c.buf[:n])
			return out, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if err := c.wait(ctx, unix.POLLIN, deadline); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("rtnl: receive: %w", err)
		}
	}
}

// wait blocks in poll until the socket is ready, the deadline passes or ctx
// is done.
func (c *socketConn) wait(ctx context.Context, events int16, deadline time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{After: c.timeout}
		}
		slice := min(remaining, pollSlice)
		fds := []unix.PollFd{{Fd: int32(c.fd), Events: events}}
		n, err := unix.Poll(fds, int(slice/time.Millisecond)+1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("rtnl: poll: %w", err)
		}
		if n > 0 {
			return nil
		}
	}
}

func (c *socketConn) Close() error {
	return unix.Close(c.fd)
}
