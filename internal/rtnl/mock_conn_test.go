package rtnl

import (
	"context"
	"errors"
	"sync"
	"time"
)

// mockConn is a test double for Conn. When script is set, each request sent
// queues the datagrams it returns.
type mockConn struct {
	mu      sync.Mutex
	script  func(req RequestMessage) [][]byte
	queue   [][]byte
	sent    []RequestMessage
	sendErr error
	closed  bool
}

func (m *mockConn) Send(b []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	req, err := DecodeRequest(b)
	if err != nil {
		return err
	}
	m.sent = append(m.sent, req)
	if m.script != nil {
		m.queue = append(m.queue, m.script(req)...)
	}
	return nil
}

func (m *mockConn) Receive(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(m.queue) == 0 {
		return nil, &TimeoutError{After: time.Second}
	}
	b := m.queue[0]
	m.queue = m.queue[1:]
	return b, nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockDialer hands out conns in order.
type mockDialer struct {
	mu    sync.Mutex
	conns []*mockConn
	err   error
	dials int
}

func (d *mockDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.dials
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	if i >= len(d.conns) {
		return nil, &ConnectError{Err: errors.New("no more connections")}
	}
	return d.conns[i], nil
}

func (d *mockDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}
