package service

import (
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

// serveUnix accepts connections on a temporary Unix socket and hands each
// to handle. The listener is closed when the test ends.
func serveUnix(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctl.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			handle(conn)
			conn.Close()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		wg.Wait()
	})
	return path
}

func findMetric(ms []metrics.Metric, name string, labels ...string) (metrics.Metric, bool) {
outer:
	for _, m := range ms {
		if m.Name != name {
			continue
		}
		for i := 0; i+1 < len(labels); i += 2 {
			if m.Labels[labels[i]] != labels[i+1] {
				continue outer
			}
		}
		return m, true
	}
	return metrics.Metric{}, false
}
