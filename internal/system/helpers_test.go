package system

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

// fixture is a fake procfs/sysfs tree under t.TempDir().
type fixture struct {
	t    *testing.T
	proc string
	sys  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{t: t, proc: filepath.Join(root, "proc"), sys: filepath.Join(root, "sys")}
	for _, d := range []string{f.proc, f.sys, filepath.Join(f.proc, "1")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}
	if err := os.Symlink("1", filepath.Join(f.proc, "self")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}
	return f
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatalf("WriteFile() error = %v", err)
	}
}

func (f *fixture) config() Config {
	return Config{ProcPath: f.proc, SysPath: f.sys}
}

// stat writes /proc/stat with the given user and idle ticks for the total
// and a single cpu0 line.
func (f *fixture) stat(user, idle int) {
	line := fmt.Sprintf("%d 0 0 %d 0 0 0 0 0 0", user, idle)
	f.write(filepath.Join(f.proc, "stat"), fmt.Sprintf(
		"cpu  %s\ncpu0 %s\nintr 0\nctxt 100\nbtime 1700000000\nprocesses 10\nprocs_running 1\nprocs_blocked 0\n",
		line, line))
}

func (f *fixture) meminfo() {
	f.write(filepath.Join(f.proc, "meminfo"),
		"MemTotal:        2048000 kB\n"+
			"MemFree:          512000 kB\n"+
			"MemAvailable:    1024000 kB\n"+
			"Buffers:           10000 kB\n"+
			"Cached:           200000 kB\n"+
			"SwapTotal:        100000 kB\n"+
			"SwapFree:          40000 kB\n")
}

func (f *fixture) loadavg() {
	f.write(filepath.Join(f.proc, "loadavg"), "0.50 0.40 0.30 1/100 1234\n")
}

func (f *fixture) mountinfo(lines ...string) {
	var s string
	for _, l := range lines {
		s += l + "\n"
	}
	f.write(filepath.Join(f.proc, "1", "mountinfo"), s)
}

func (f *fixture) diskstats(lines ...string) {
	var s string
	for _, l := range lines {
		s += l + "\n"
	}
	f.write(filepath.Join(f.proc, "diskstats"), s)
}

func (f *fixture) thermalZone(n int, typ, temp string) {
	dir := filepath.Join(f.sys, "class", "thermal", fmt.Sprintf("thermal_zone%d", n))
	if typ != "" {
		f.write(filepath.Join(dir, "type"), typ+"\n")
	}
	if temp != "" {
		f.write(filepath.Join(dir, "temp"), temp+"\n")
	}
	if typ == "" && temp == "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			f.t.Fatalf("MkdirAll() error = %v", err)
		}
	}
}

// fakeStatFS answers statfs from a table keyed by mount point.
type fakeStatFS map[string]FSUsage

func (m fakeStatFS) statfs(path string) (FSUsage, error) {
	u, ok := m[path]
	if !ok {
		return FSUsage{}, errors.New("no such mount")
	}
	return u, nil
}

// hangingStatFS answers like fakeStatFS but blocks on one mount point until
// release is closed.
type hangingStatFS struct {
	fakeStatFS
	hang    string
	release chan struct{}
	calls   atomic.Int32
}

func newHangingStatFS(t *testing.T, usage fakeStatFS, hang string) *hangingStatFS {
	h := &hangingStatFS{fakeStatFS: usage, hang: hang, release: make(chan struct{})}
	t.Cleanup(func() { close(h.release) })
	return h
}

func (h *hangingStatFS) statfs(path string) (FSUsage, error) {
	if path == h.hang {
		h.calls.Add(1)
		<-h.release
	}
	return h.fakeStatFS.statfs(path)
}
