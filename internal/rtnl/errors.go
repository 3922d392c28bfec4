package rtnl

import (
	"errors"
	"fmt"
	"syscall"
	"time"
)

// ErrDumpInterrupted reports that the kernel flagged a dump as inconsistent
// because the table changed while it was being read.
var ErrDumpInterrupted = errors.New("rtnl: dump interrupted")

// ErrOverrun reports that the kernel dropped messages for the socket.
var ErrOverrun = errors.New("rtnl: receive overrun")

// ConnectError reports that the routing socket could not be opened, for
// example because the kernel lacks netlink support or the process is not
// permitted to bind it. No collection pass can succeed after it.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return "rtnl: connect: " + e.Err.Error() }
func (e *ConnectError) Unwrap() error { return e.Err }

// Fatal marks the error as failing the whole collection pass.
func (e *ConnectError) Fatal() bool { return true }

// SendError reports a failed or short request write.
type SendError struct {
	Written int
	Want    int
	Err     error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return "rtnl: send: " + e.Err.Error()
	}
	return fmt.Sprintf("rtnl: send: short write (%d of %d bytes)", e.Written, e.Want)
}

func (e *SendError) Unwrap() error { return e.Err }

// TimeoutError reports that no reply arrived within the receive timeout.
// Frames collected before the timeout are discarded.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rtnl: receive: no reply within %s", e.After)
}

// Timeout satisfies the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

// DecodeError reports a malformed frame, record or attribute.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rtnl: decode: offset %d: %s", e.Offset, e.Reason)
}

// KernelError is an errno returned by the kernel in an error frame.
type KernelError struct {
	Errno syscall.Errno
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("rtnl: kernel error: %v", e.Errno)
}

func (e *KernelError) Unwrap() error { return e.Errno }

func errnoOf(code int32) syscall.Errno {
	return syscall.Errno(code)
}

func isRetryable(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te) || errors.Is(err, ErrDumpInterrupted)
}
