package metrics

import (
	"context"
	"sync"
	"time"
)

// mockCollector is a test double for Collector.
type mockCollector struct {
	name    string
	metrics []Metric
	err     error
	delay   time.Duration
	block   bool
	panics  bool

	mu    sync.Mutex
	calls int
}

func (m *mockCollector) Name() string { return m.name }

func (m *mockCollector) Collect(ctx context.Context) ([]Metric, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.panics {
		panic("boom")
	}
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.metrics, m.err
}

func (m *mockCollector) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type observation struct {
	name    string
	samples int
	err     error
}

// mockObserver records ObserveCollector calls.
type mockObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *mockObserver) ObserveCollector(name string, _ time.Duration, samples int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, observation{name: name, samples: samples, err: err})
}

func (o *mockObserver) byName(name string) (observation, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ob := range o.obs {
		if ob.name == name {
			return ob, true
		}
	}
	return observation{}, false
}

type fatalErr struct{}

func (fatalErr) Error() string { return "socket unavailable" }
func (fatalErr) Fatal() bool   { return true }
