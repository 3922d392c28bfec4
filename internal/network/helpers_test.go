package network

import (
	"log/slog"
	"testing"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
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

func wantValue(t *testing.T, ms []metrics.Metric, want float64, name string, labels ...string) {
	t.Helper()
	m, ok := findMetric(ms, name, labels...)
	if !ok {
		t.Errorf("missing %s%v", name, labels)
		return
	}
	if m.Value != want {
		t.Errorf("%s%v = %v, want %v", name, labels, m.Value, want)
	}
}
