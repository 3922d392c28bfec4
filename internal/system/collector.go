package system

import (
	"context"
	"log/slog"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

var (
	cpuUtilization = metrics.Desc{Subsystem: "cpu", Name: "utilization", Unit: "ratio", Help: "Fraction of time the CPU was busy since the previous scrape."}
	cpuIdle        = metrics.Desc{Subsystem: "cpu", Name: "idle", Unit: "seconds", Kind: metrics.KindCounter, Help: "Seconds the CPU spent idle or waiting for I/O."}
	load1          = metrics.Desc{Subsystem: "cpu", Name: "load1", Help: "One minute load average."}
	load5          = metrics.Desc{Subsystem: "cpu", Name: "load5", Help: "Five minute load average."}
	load15         = metrics.Desc{Subsystem: "cpu", Name: "load15", Help: "Fifteen minute load average."}

	memSize      = metrics.Desc{Subsystem: "memory", Name: "size", Unit: "bytes", Help: "Total usable memory."}
	memAvailable = metrics.Desc{Subsystem: "memory", Name: "available", Unit: "bytes", Help: "Memory available for new allocations without swapping."}
	memUsed      = metrics.Desc{Subsystem: "memory", Name: "used", Unit: "bytes", Help: "Memory in use (size minus available)."}
	swapSize     = metrics.Desc{Subsystem: "memory", Name: "swap_size", Unit: "bytes", Help: "Total swap space."}
	swapFree     = metrics.Desc{Subsystem: "memory", Name: "swap_free", Unit: "bytes", Help: "Unused swap space."}

	fsSize      = metrics.Desc{Subsystem: "filesystem", Name: "size", Unit: "bytes", Help: "Filesystem size."}
	fsUsed      = metrics.Desc{Subsystem: "filesystem", Name: "used", Unit: "bytes", Help: "Filesystem space in use."}
	fsAvailable = metrics.Desc{Subsystem: "filesystem", Name: "available", Unit: "bytes", Help: "Filesystem space available to unprivileged users."}
	fsRead      = metrics.Desc{Subsystem: "filesystem", Name: "read", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes read from the device backing the mount."}
	fsWritten   = metrics.Desc{Subsystem: "filesystem", Name: "write", Unit: "bytes", Kind: metrics.KindCounter, Help: "Bytes written to the device backing the mount."}

	thermalTemp = metrics.Desc{Subsystem: "thermal", Name: "temperature", Unit: "celsius", Help: "Thermal zone temperature."}
)

// Collector adapts the Sampler to metrics.Collector and carries the CPU
// counters between passes.
type Collector struct {
	sampler *Sampler
	state   CPUState
	logger  *slog.Logger
}

// NewCollector creates a Collector.
func NewCollector(sampler *Sampler, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{sampler: sampler, logger: logger}
}

// Name implements metrics.Collector.
func (c *Collector) Name() string { return metrics.CollectorSystem }

// Collect implements metrics.Collector. It never fails; missing sources
// only leave their metrics out.
func (c *Collector) Collect(ctx context.Context) ([]metrics.Metric, error) {
	var cpus []CPUSample
	c.state.Advance(func(prev CPUCounters) CPUCounters {
		var next CPUCounters
		cpus, next = c.sampler.sampleCPU(prev)
		return next
	})

	s := c.sampler.sampleHealth(ctx)
	s.CPUs = cpus
	return SampleMetrics(s), nil
}

// SampleMetrics converts a Sample. CPUs without a rate this pass export only
// their idle counter.
func SampleMetrics(s Sample) []metrics.Metric {
	var out []metrics.Metric

	for _, cpu := range s.CPUs {
		out = append(out, cpuIdle.New(cpu.IdleSeconds, "cpu", cpu.CPU))
		if cpu.RateOK {
			out = append(out, cpuUtilization.New(cpu.Utilization, "cpu", cpu.CPU))
		}
	}

	if l := s.Load; l != nil {
		out = append(out,
			load1.New(l.Load1),
			load5.New(l.Load5),
			load15.New(l.Load15),
		)
	}

	if m := s.Memory; m != nil {
		out = append(out,
			memSize.New(float64(m.Total)),
			memAvailable.New(float64(m.Available)),
			memUsed.New(float64(m.Used)),
			swapSize.New(float64(m.SwapTotal)),
			swapFree.New(float64(m.SwapFree)),
		)
	}

	for _, ms := range s.Mounts {
		labels := []string{"device", ms.Device, "mountpoint", ms.MountPoint, "fstype", ms.FSType}
		out = append(out,
			fsSize.New(float64(ms.Total), labels...),
			fsUsed.New(float64(ms.Used), labels...),
			fsAvailable.New(float64(ms.Available), labels...),
		)
		if ms.HasIO {
			out = append(out,
				fsRead.New(float64(ms.ReadBytes), "device", ms.Device, "mountpoint", ms.MountPoint),
				fsWritten.New(float64(ms.WriteBytes), "device", ms.Device, "mountpoint", ms.MountPoint),
			)
		}
	}

	for _, z := range s.Thermal {
		out = append(out, thermalTemp.New(z.Celsius, "zone", z.Zone, "type", z.Type))
	}
	return out
}
