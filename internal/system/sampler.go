package system

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/blockdevice"
)

const sectorSize = 512

// CPUSample is the utilisation of one CPU over the last interval.
type CPUSample struct {
	CPU         string
	Utilization float64
	RateOK      bool
	IdleSeconds float64
}

// LoadSample is the kernel load average.
type LoadSample struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// MemorySample holds whole-system memory figures in bytes.
type MemorySample struct {
	Total     uint64
	Available uint64
	Used      uint64
	SwapTotal uint64
	SwapFree  uint64
}

// MountSample is the capacity and I/O of one block-device-backed mount.
type MountSample struct {
	Device     string
	MountPoint string
	FSType     string
	Total      uint64
	Used       uint64
	Available  uint64
	ReadBytes  uint64
	WriteBytes uint64
	HasIO      bool
}

// ThermalSample is one thermal zone reading.
type ThermalSample struct {
	Zone    string
	Type    string
	Celsius float64
}

// Sample is the result of one system sampling pass. Nil or empty members
// mean the corresponding source could not be read.
type Sample struct {
	CPUs    []CPUSample
	Load    *LoadSample
	Memory  *MemorySample
	Mounts  []MountSample
	Thermal []ThermalSample
}

// FSUsage is the capacity of a mounted filesystem in bytes.
type FSUsage struct {
	Total     uint64
	Free      uint64
	Available uint64
}

// StatFS queries a mounted filesystem.
type StatFS func(path string) (FSUsage, error)

// Sampler reads system health from procfs and sysfs.
type Sampler struct {
	cfg    Config
	statfs StatFS
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]bool // mount points with a statfs still in flight
}

// NewSampler creates a Sampler. A nil statfs uses the platform statfs(2).
// Config defaults are applied automatically.
func NewSampler(cfg Config, statfs StatFS, logger *slog.Logger) *Sampler {
	cfg.ApplyDefaults()
	if statfs == nil {
		statfs = platformStatFS
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		cfg:     cfg,
		statfs:  statfs,
		logger:  logger.With("component", "system"),
		pending: make(map[string]bool),
	}
}

// Sample reads everything once. prev are the CPU counters returned by the
// previous call; the counters of this pass are returned for the next one.
// Each source is read independently and an unreadable one is only logged.
func (s *Sampler) Sample(ctx context.Context, prev CPUCounters) (Sample, CPUCounters) {
	cpus, next := s.sampleCPU(prev)
	out := s.sampleHealth(ctx)
	out.CPUs = cpus
	return out, next
}

// sampleCPU reads /proc/stat and rates it against prev. It touches nothing
// but procfs, so it is the only part run under CPUState.
func (s *Sampler) sampleCPU(prev CPUCounters) ([]CPUSample, CPUCounters) {
	fs, err := procfs.NewFS(s.cfg.ProcPath)
	if err != nil {
		return nil, nil
	}
	return s.readCPU(fs, prev)
}

// sampleHealth reads everything but the CPU counters.
func (s *Sampler) sampleHealth(ctx context.Context) Sample {
	var out Sample

	fs, err := procfs.NewFS(s.cfg.ProcPath)
	if err != nil {
		s.logger.Warn("procfs unavailable", "path", s.cfg.ProcPath, "error", err)
		out.Thermal = s.readThermal()
		return out
	}

	out.Load = s.readLoad(fs)
	out.Memory = s.readMemory(fs)
	if ctx.Err() == nil {
		out.Mounts = s.readMounts(ctx, fs)
	}
	out.Thermal = s.readThermal()
	return out
}

func (s *Sampler) readCPU(fs procfs.FS, prev CPUCounters) ([]CPUSample, CPUCounters) {
	st, err := fs.Stat()
	if err != nil {
		s.logger.Debug("cpu stat unreadable", "error", err)
		return nil, nil
	}
	cur := countersFromStat(st)

	cpus := make([]CPUSample, 0, len(cur))
	for name, times := range cur {
		cs := CPUSample{CPU: name, IdleSeconds: times.Idle}
		if p, ok := prev[name]; ok {
			cs.Utilization, cs.RateOK = Utilization(p, times)
		}
		cpus = append(cpus, cs)
	}
	slices.SortFunc(cpus, func(a, b CPUSample) int { return strings.Compare(a.CPU, b.CPU) })
	return cpus, cur
}

func (s *Sampler) readLoad(fs procfs.FS) *LoadSample {
	la, err := fs.LoadAvg()
	if err != nil {
		s.logger.Debug("loadavg unreadable", "error", err)
		return nil
	}
	return &LoadSample{Load1: la.Load1, Load5: la.Load5, Load15: la.Load15}
}

func (s *Sampler) readMemory(fs procfs.FS) *MemorySample {
	mi, err := fs.Meminfo()
	if err != nil {
		s.logger.Debug("meminfo unreadable", "error", err)
		return nil
	}
	if mi.MemTotal == nil {
		s.logger.Debug("meminfo lacks MemTotal")
		return nil
	}

	m := &MemorySample{Total: kib(mi.MemTotal)}
	switch {
	case mi.MemAvailable != nil:
		m.Available = kib(mi.MemAvailable)
	default:
		// Kernels before 3.14 have no MemAvailable.
		m.Available = kib(mi.MemFree) + kib(mi.Buffers) + kib(mi.Cached)
	}
	if m.Available <= m.Total {
		m.Used = m.Total - m.Available
	}
	m.SwapTotal = kib(mi.SwapTotal)
	m.SwapFree = kib(mi.SwapFree)
	return m
}

func kib(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v * 1024
}

// readMounts lists block-device-backed mounts as they are right now, so
// mounts that appeared or vanished since the last pass are handled. A mount
// point listed twice keeps its last entry, which is the visible one.
//
// Each mount is queried in its own goroutine bounded by MountTimeout and
// ctx. A mount that does not answer is left out, and is not queried again
// until its earlier call returns.
func (s *Sampler) readMounts(ctx context.Context, fs procfs.FS) []MountSample {
	self, err := fs.Self()
	if err != nil {
		s.logger.Debug("procfs self unreadable", "error", err)
		return nil
	}
	infos, err := self.MountInfo()
	if err != nil {
		s.logger.Debug("mountinfo unreadable", "error", err)
		return nil
	}

	byPoint := make(map[string]*procfs.MountInfo)
	var order []string
	for _, mi := range infos {
		if !strings.HasPrefix(mi.Source, "/") {
			continue
		}
		if _, seen := byPoint[mi.MountPoint]; !seen {
			order = append(order, mi.MountPoint)
		}
		byPoint[mi.MountPoint] = mi
	}
	if len(order) == 0 {
		return []MountSample{}
	}

	usages := s.statMounts(ctx, order)
	io := s.readDiskIO()

	out := make([]MountSample, 0, len(order))
	for _, point := range order {
		usage, ok := usages[point]
		if !ok {
			continue
		}
		mi := byPoint[point]
		ms := MountSample{
			Device:     mi.Source,
			MountPoint: mi.MountPoint,
			FSType:     mi.FSType,
			Total:      usage.Total,
			Available:  usage.Available,
		}
		if usage.Free <= usage.Total {
			ms.Used = usage.Total - usage.Free
		}
		if d, ok := io[mi.MajorMinorVer]; ok {
			ms.ReadBytes = d.ReadSectors * sectorSize
			ms.WriteBytes = d.WriteSectors * sectorSize
			ms.HasIO = true
		}
		out = append(out, ms)
	}
	return out
}

type statResult struct {
	point string
	usage FSUsage
	err   error
}

// statMounts queries every mount point concurrently and returns the usage of
// those that answered before the deadline.
func (s *Sampler) statMounts(ctx context.Context, points []string) map[string]FSUsage {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.MountTimeout)
	defer cancel()

	results := make(chan statResult, len(points))
	waiting := make(map[string]bool, len(points))
	for _, point := range points {
		if !s.begin(point) {
			s.logger.Debug("statfs still pending from an earlier pass", "mountpoint", point)
			continue
		}
		waiting[point] = true
		go func() {
			defer s.end(point)
			usage, err := s.statfs(point)
			results <- statResult{point: point, usage: usage, err: err}
		}()
	}

	out := make(map[string]FSUsage, len(waiting))
	for len(waiting) > 0 {
		select {
		case r := <-results:
			delete(waiting, r.point)
			if r.err != nil {
				s.logger.Debug("statfs failed", "mountpoint", r.point, "error", r.err)
				continue
			}
			out[r.point] = r.usage
		case <-ctx.Done():
			for point := range waiting {
				s.logger.Debug("statfs timed out", "mountpoint", point, "error", ctx.Err())
			}
			return out
		}
	}
	return out
}

// begin marks point as in flight. It reports false if it already was.
func (s *Sampler) begin(point string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[point] {
		return false
	}
	s.pending[point] = true
	return true
}

func (s *Sampler) end(point string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, point)
}

// readDiskIO maps "major:minor" to the device's I/O counters.
func (s *Sampler) readDiskIO() map[string]blockdevice.IOStats {
	bfs, err := blockdevice.NewFS(s.cfg.ProcPath, s.cfg.SysPath)
	if err != nil {
		s.logger.Debug("blockdevice fs unavailable", "error", err)
		return nil
	}
	stats, err := bfs.ProcDiskstats()
	if err != nil {
		s.logger.Debug("diskstats unreadable", "error", err)
		return nil
	}
	out := make(map[string]blockdevice.IOStats, len(stats))
	for _, d := range stats {
		out[fmt.Sprintf("%d:%d", d.MajorNumber, d.MinorNumber)] = d.IOStats
	}
	return out
}

// readThermal reads every thermal zone on its own; a zone whose files are
// missing or malformed is left out.
func (s *Sampler) readThermal() []ThermalSample {
	zones, err := filepath.Glob(filepath.Join(s.cfg.SysPath, "class", "thermal", "thermal_zone*"))
	if err != nil || len(zones) == 0 {
		return nil
	}

	var out []ThermalSample
	for _, dir := range zones {
		zone := strings.TrimPrefix(filepath.Base(dir), "thermal_zone")
		raw, err := os.ReadFile(filepath.Join(dir, "temp"))
		if err != nil {
			s.logger.Debug("thermal zone unreadable", "zone", zone, "error", err)
			continue
		}
		milli, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
		if err != nil {
			s.logger.Debug("thermal zone malformed", "zone", zone, "error", err)
			continue
		}
		typ, err := os.ReadFile(filepath.Join(dir, "type"))
		if err != nil {
			typ = nil
		}
		out = append(out, ThermalSample{
			Zone:    zone,
			Type:    strings.TrimSpace(string(typ)),
			Celsius: float64(milli) / 1000,
		})
	}
	slices.SortFunc(out, func(a, b ThermalSample) int { return strings.Compare(a.Zone, b.Zone) })
	return out
}
