package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSampler_Sample(t *testing.T) {
	f := newFixture(t)
	f.stat(100, 300)
	f.meminfo()
	f.loadavg()
	f.mountinfo(
		"22 1 8:1 / / rw,relatime shared:1 - ext4 /dev/sda1 rw",
		"23 22 0:21 / /proc rw,nosuid shared:2 - proc proc rw",
		"24 22 0:22 / /tmp rw shared:3 - tmpfs tmpfs rw",
		"25 22 8:2 / /srv rw shared:4 - ext4 /dev/sda2 rw",
	)
	f.diskstats(
		"   8       1 sda1 100 0 2048 10 50 0 4096 20 0 30 30 0 0 0 0 0 0",
		"   8       2 sda2 1 0 8 1 1 0 8 1 0 2 2 0 0 0 0 0 0",
	)
	f.thermalZone(0, "cpu-thermal", "45500")
	f.thermalZone(1, "gpu-thermal", "garbage")

	statfs := fakeStatFS{
		"/":    {Total: 1000, Free: 400, Available: 300},
		"/srv": {Total: 2000, Free: 2000, Available: 1900},
	}
	s := NewSampler(f.config(), statfs.statfs, discardLogger())

	sample, counters := s.Sample(context.Background(), nil)

	if counters == nil || counters[CPUAll].Total != 4 {
		t.Fatalf("counters = %v, want total 4s for all", counters)
	}
	if len(sample.CPUs) != 2 {
		t.Fatalf("len(CPUs) = %d, want 2", len(sample.CPUs))
	}
	for _, c := range sample.CPUs {
		if c.RateOK {
			t.Errorf("cpu %s has a rate on the first pass", c.CPU)
		}
	}

	if sample.Memory == nil {
		t.Fatal("Memory = nil")
	}
	if sample.Memory.Total != 2048000*1024 || sample.Memory.Available != 1024000*1024 {
		t.Errorf("Memory = %+v", sample.Memory)
	}
	if sample.Memory.Used != sample.Memory.Total-sample.Memory.Available {
		t.Errorf("Used = %d", sample.Memory.Used)
	}
	if sample.Memory.SwapFree != 40000*1024 {
		t.Errorf("SwapFree = %d", sample.Memory.SwapFree)
	}

	if sample.Load == nil || sample.Load.Load1 != 0.5 || sample.Load.Load15 != 0.3 {
		t.Errorf("Load = %+v", sample.Load)
	}

	if len(sample.Mounts) != 2 {
		t.Fatalf("len(Mounts) = %d, want 2 block-backed mounts", len(sample.Mounts))
	}
	root := sample.Mounts[0]
	if root.MountPoint != "/" || root.Device != "/dev/sda1" || root.FSType != "ext4" {
		t.Errorf("Mounts[0] = %+v", root)
	}
	if root.Total != 1000 || root.Used != 600 || root.Available != 300 {
		t.Errorf("root usage = %+v", root)
	}
	if !root.HasIO || root.ReadBytes != 2048*512 || root.WriteBytes != 4096*512 {
		t.Errorf("root io = %+v", root)
	}

	if len(sample.Thermal) != 1 {
		t.Fatalf("len(Thermal) = %d, want 1 readable zone", len(sample.Thermal))
	}
	if z := sample.Thermal[0]; z.Zone != "0" || z.Type != "cpu-thermal" || z.Celsius != 45.5 {
		t.Errorf("Thermal[0] = %+v", z)
	}
}

func TestSampler_RateOnSecondPass(t *testing.T) {
	f := newFixture(t)
	s := NewSampler(f.config(), fakeStatFS{}.statfs, discardLogger())

	f.stat(100, 100)
	_, prev := s.Sample(context.Background(), nil)

	f.stat(150, 150)
	sample, prev := s.Sample(context.Background(), prev)
	for _, c := range sample.CPUs {
		if !c.RateOK || c.Utilization != 0.5 {
			t.Errorf("cpu %s: Utilization = %v ok=%v, want 0.5", c.CPU, c.Utilization, c.RateOK)
		}
	}

	f.stat(140, 140)
	sample, _ = s.Sample(context.Background(), prev)
	for _, c := range sample.CPUs {
		if c.RateOK {
			t.Errorf("cpu %s: rate %v reported after counter decrease", c.CPU, c.Utilization)
		}
	}
}

func TestSampler_MissingSourcesAreOmitted(t *testing.T) {
	f := newFixture(t)
	f.meminfo()
	s := NewSampler(f.config(), fakeStatFS{}.statfs, discardLogger())

	sample, counters := s.Sample(context.Background(), nil)
	if counters != nil {
		t.Errorf("counters = %v, want nil without /proc/stat", counters)
	}
	if sample.CPUs != nil || sample.Load != nil || sample.Mounts != nil || sample.Thermal != nil {
		t.Errorf("sample = %+v, want only memory", sample)
	}
	if sample.Memory == nil {
		t.Error("Memory = nil, want it read independently")
	}
}

func TestSampler_MountListRediscovered(t *testing.T) {
	f := newFixture(t)
	statfs := fakeStatFS{
		"/":    {Total: 10, Free: 5, Available: 5},
		"/mnt": {Total: 20, Free: 10, Available: 10},
	}
	s := NewSampler(f.config(), statfs.statfs, discardLogger())

	f.mountinfo("22 1 8:1 / / rw - ext4 /dev/sda1 rw")
	sample, _ := s.Sample(context.Background(), nil)
	if len(sample.Mounts) != 1 {
		t.Fatalf("len(Mounts) = %d, want 1", len(sample.Mounts))
	}

	f.mountinfo(
		"22 1 8:1 / / rw - ext4 /dev/sda1 rw",
		"30 22 8:17 / /mnt rw - vfat /dev/sdb1 rw",
	)
	sample, _ = s.Sample(context.Background(), nil)
	if len(sample.Mounts) != 2 || sample.Mounts[1].MountPoint != "/mnt" {
		t.Fatalf("Mounts = %+v, want / and /mnt", sample.Mounts)
	}
	if sample.Mounts[1].HasIO {
		t.Error("mount without diskstats entry should have no I/O counters")
	}
}

func TestSampler_MountPointDeduplicated(t *testing.T) {
	f := newFixture(t)
	f.mountinfo(
		"22 1 8:1 / /data rw - ext4 /dev/sda1 rw",
		"40 22 8:2 / /data rw - xfs /dev/sda2 rw",
	)
	s := NewSampler(f.config(), fakeStatFS{"/data": {Total: 1}}.statfs, discardLogger())

	sample, _ := s.Sample(context.Background(), nil)
	if len(sample.Mounts) != 1 || sample.Mounts[0].Device != "/dev/sda2" {
		t.Errorf("Mounts = %+v, want the shadowing mount only", sample.Mounts)
	}
}

func TestSampler_ProcPathMissing(t *testing.T) {
	dir := t.TempDir()
	sys := filepath.Join(dir, "sys")
	if err := os.MkdirAll(filepath.Join(sys, "class", "thermal", "thermal_zone3"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sys, "class", "thermal", "thermal_zone3", "temp"), []byte("30000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewSampler(Config{ProcPath: filepath.Join(dir, "missing"), SysPath: sys}, nil, discardLogger())

	sample, counters := s.Sample(context.Background(), nil)
	if counters != nil || sample.Memory != nil {
		t.Errorf("sample = %+v, want no procfs data", sample)
	}
	if len(sample.Thermal) != 1 || sample.Thermal[0].Type != "" {
		t.Errorf("Thermal = %+v, want zone without type", sample.Thermal)
	}
}
