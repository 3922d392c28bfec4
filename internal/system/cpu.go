package system

import (
	"strconv"
	"sync"

	"github.com/prometheus/procfs"
)

// CPUAll labels the aggregate of all CPUs.
const CPUAll = "all"

// CPUTimes is a raw cumulative reading for one CPU, in seconds.
type CPUTimes struct {
	Busy  float64
	Idle  float64
	Total float64
}

// CPUCounters holds the raw readings of one pass keyed by CPU label.
type CPUCounters map[string]CPUTimes

// Utilization derives the busy fraction between two readings of the same
// CPU. A decrease of either counter, as after a reset or wrap, and an
// unchanged total both mean no rate is available for this pass.
func Utilization(prev, cur CPUTimes) (float64, bool) {
	if cur.Total < prev.Total || cur.Busy < prev.Busy {
		return 0, false
	}
	dTotal := cur.Total - prev.Total
	if dTotal == 0 {
		return 0, false
	}
	r := (cur.Busy - prev.Busy) / dTotal
	switch {
	case r < 0:
		r = 0
	case r > 1:
		r = 1
	}
	return r, true
}

func cpuTimes(s procfs.CPUStat) CPUTimes {
	busy := s.User + s.Nice + s.System + s.IRQ + s.SoftIRQ + s.Steal
	idle := s.Idle + s.Iowait
	return CPUTimes{Busy: busy, Idle: idle, Total: busy + idle}
}

func countersFromStat(st procfs.Stat) CPUCounters {
	out := make(CPUCounters, len(st.CPU)+1)
	out[CPUAll] = cpuTimes(st.CPUTotal)
	for id, s := range st.CPU {
		out[strconv.FormatInt(id, 10)] = cpuTimes(s)
	}
	return out
}

// CPUState owns the counters carried from one pass to the next. It starts
// empty, so the first pass after startup reports no utilisation.
type CPUState struct {
	mu   sync.Mutex
	prev CPUCounters
}

// Advance runs fn with the previous counters and stores what it returns.
// Concurrent passes serialise here; each sees whichever pass landed last.
// fn should only read /proc/stat, since a slow fn stalls every later pass.
func (s *CPUState) Advance(fn func(prev CPUCounters) CPUCounters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next := fn(s.prev); next != nil {
		s.prev = next
	}
}
