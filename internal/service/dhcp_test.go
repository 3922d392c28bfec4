package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeLeases(t *testing.T, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leases")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}
	return path
}

func TestDHCPProbe_DnsmasqFresh(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	leases := strings.Join([]string{
		"1700003600 aa:bb:cc:dd:ee:01 192.168.1.10 laptop 01:aa:bb:cc:dd:ee:01",
		"1699990000 aa:bb:cc:dd:ee:02 192.168.1.11 phone *",
		"0 aa:bb:cc:dd:ee:03 192.168.1.12 printer *",
		"duid 00:01:00:01:2a:2b:2c:2d:aa:bb:cc:dd:ee:ff",
	}, "\n") + "\n"
	path := writeLeases(t, leases, now.Add(-10*time.Minute))

	p := NewDHCPProbe(DHCPConfig{LeaseFile: path, RenewalHorizon: time.Hour}, discardLogger())
	p.now = func() time.Time { return now }

	s := p.Probe()
	if !s.Present || !s.Fresh {
		t.Errorf("Present=%v Fresh=%v, want both true", s.Present, s.Fresh)
	}
	if s.Age != 10*time.Minute {
		t.Errorf("Age = %v, want 10m", s.Age)
	}
	if !s.LeasesKnown || s.Leases != 2 {
		t.Errorf("Leases = %d (known=%v), want 2", s.Leases, s.LeasesKnown)
	}
}

func TestDHCPProbe_Stale(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	path := writeLeases(t, "", now.Add(-25*time.Hour))

	p := NewDHCPProbe(DHCPConfig{LeaseFile: path, RenewalHorizon: 12 * time.Hour}, discardLogger())
	p.now = func() time.Time { return now }

	s := p.Probe()
	if !s.Present || s.Fresh {
		t.Errorf("Present=%v Fresh=%v, want present and stale", s.Present, s.Fresh)
	}
	if !s.LeasesKnown || s.Leases != 0 {
		t.Errorf("Leases = %d (known=%v), want 0", s.Leases, s.LeasesKnown)
	}
}

func TestDHCPProbe_Missing(t *testing.T) {
	p := NewDHCPProbe(DHCPConfig{LeaseFile: filepath.Join(t.TempDir(), "nope"), RenewalHorizon: time.Hour}, discardLogger())
	s := p.Probe()
	if s != (DHCPSample{}) {
		t.Errorf("Probe() = %+v, want zero sample", s)
	}
}

func TestDHCPProbe_Unparseable(t *testing.T) {
	now := time.Now()
	path := writeLeases(t, "not-a-number aa:bb 10.0.0.1 x *\n", now)
	p := NewDHCPProbe(DHCPConfig{LeaseFile: path, RenewalHorizon: time.Hour}, discardLogger())

	s := p.Probe()
	if !s.Present || s.LeasesKnown {
		t.Errorf("Probe() = %+v, want present with unknown lease count", s)
	}
}

func TestDHCPProbe_KeaMemfile(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	csv := strings.Join([]string{
		"address,hwaddr,client_id,valid_lifetime,expire,subnet_id,fqdn_fwd,fqdn_rev,hostname,state,user_context,pool_id",
		"192.168.1.10,aa:bb:cc:dd:ee:01,,3600,1700003600,1,0,0,laptop,0,,0",
		"192.168.1.11,aa:bb:cc:dd:ee:02,,3600,1700001000,1,0,0,phone,0,,0",
		// Later row for .11 marks it reclaimed.
		"192.168.1.11,aa:bb:cc:dd:ee:02,,3600,1700001000,1,0,0,phone,2,,0",
		"192.168.1.12,aa:bb:cc:dd:ee:03,,3600,1699990000,1,0,0,tv,0,,0",
		"192.168.1.13,aa:bb:cc:dd:ee:04,,3600,1700007200,1,0,0,,1,,0",
	}, "\n") + "\n"
	path := writeLeases(t, csv, now)

	p := NewDHCPProbe(DHCPConfig{LeaseFile: path, RenewalHorizon: time.Hour}, discardLogger())
	p.now = func() time.Time { return now }

	s := p.Probe()
	if !s.LeasesKnown || s.Leases != 1 {
		t.Errorf("Leases = %d (known=%v), want 1", s.Leases, s.LeasesKnown)
	}
}
