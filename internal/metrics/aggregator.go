package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNoMetrics is returned when every collector in a pass failed.
var ErrNoMetrics = errors.New("metrics: no collector succeeded")

// Aggregator runs collection passes. It keeps no state between passes; every
// call to Collect queries all collectors afresh.
type Aggregator struct {
	cfg        Config
	collectors []Collector
	observer   Observer
	logger     *slog.Logger
}

// NewAggregator creates a new Aggregator. Config defaults are applied
// automatically.
func NewAggregator(cfg Config, collectors []Collector, logger *slog.Logger) *Aggregator {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		cfg:        cfg,
		collectors: collectors,
		logger:     logger.With("component", "metrics"),
	}
}

// SetObserver installs an observer for per-collector outcomes.
// Must be called before the first Collect; it is not safe for concurrent use.
func (a *Aggregator) SetObserver(o Observer) {
	a.observer = o
}

// Names returns the collector names in registration order.
func (a *Aggregator) Names() []string {
	names := make([]string, len(a.collectors))
	for i, c := range a.collectors {
		names[i] = c.Name()
	}
	return names
}

// Collect runs every collector concurrently, each under its own timeout,
// and returns the merged metrics sorted by name and labels. A failing or
// overrunning collector only loses its own metrics. Collect fails when a
// collector returns a fatal error or when no collector succeeded.
func (a *Aggregator) Collect(ctx context.Context) ([]Metric, error) {
	results := make([][]Metric, len(a.collectors))
	errs := make([]error, len(a.collectors))

	var g errgroup.Group
	for i, c := range a.collectors {
		g.Go(func() error {
			results[i], errs[i] = a.run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged []Metric
		failed []error
	)
	for i, err := range errs {
		if err != nil {
			var fatal FatalError
			if errors.As(err, &fatal) && fatal.Fatal() {
				return nil, err
			}
			failed = append(failed, err)
			continue
		}
		merged = append(merged, results[i]...)
	}

	if len(a.collectors) > 0 && len(failed) == len(a.collectors) {
		return nil, fmt.Errorf("%w: %w", ErrNoMetrics, errors.Join(failed...))
	}

	Sort(merged)
	return merged, nil
}

// run executes one collector under the per-collector timeout. When the
// timeout fires first the collector goroutine is left to finish on its own
// and its result is discarded.
func (a *Aggregator) run(ctx context.Context, c Collector) ([]Metric, error) {
	name := c.Name()
	cctx, cancel := context.WithTimeout(ctx, a.cfg.CollectorTimeout)
	defer cancel()

	type result struct {
		metrics []Metric
		err     error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		ms, err := safeCollect(cctx, c)
		done <- result{ms, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-cctx.Done():
		r.err = cctx.Err()
	}
	elapsed := time.Since(start)

	if r.err != nil {
		r.err = fmt.Errorf("metrics: collector %s: %w", name, r.err)
		r.metrics = nil
		a.logger.Warn("collector failed",
			"collector", name,
			"duration", elapsed,
			"error", r.err,
		)
	} else {
		a.logger.Debug("collector finished",
			"collector", name,
			"duration", elapsed,
			"samples", len(r.metrics),
		)
	}

	if a.observer != nil {
		a.observer.ObserveCollector(name, elapsed, len(r.metrics), r.err)
	}
	return r.metrics, r.err
}

// safeCollect calls a collector with panic recovery.
func safeCollect(ctx context.Context, c Collector) (ms []Metric, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("collector panicked: %v\n%s", v, debug.Stack())
		}
	}()
	return c.Collect(ctx)
}
