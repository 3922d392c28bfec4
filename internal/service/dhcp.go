package service

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DHCPSample is the lease store state.
type DHCPSample struct {
	Present     bool
	Fresh       bool
	Age         time.Duration
	Leases      int
	LeasesKnown bool
}

// DHCPProbe uses the lease store as a liveness proxy for the DHCP server: a
// server handing out leases keeps rewriting it.
type DHCPProbe struct {
	cfg    DHCPConfig
	now    func() time.Time
	logger *slog.Logger
}

// NewDHCPProbe creates a DHCPProbe.
func NewDHCPProbe(cfg DHCPConfig, logger *slog.Logger) *DHCPProbe {
	return &DHCPProbe{cfg: cfg, now: time.Now, logger: logger}
}

// Probe stats and parses the lease store. It never fails; a missing store
// is reported as not present.
func (p *DHCPProbe) Probe() DHCPSample {
	var s DHCPSample

	fi, err := os.Stat(p.cfg.LeaseFile)
	if err != nil {
		p.logger.Debug("lease store unavailable", "path", p.cfg.LeaseFile, "error", err)
		return s
	}
	now := p.now()
	s.Present = true
	s.Age = max(now.Sub(fi.ModTime()), 0)
	s.Fresh = s.Age <= p.cfg.RenewalHorizon

	n, err := p.countLeases(now)
	if err != nil {
		p.logger.Debug("lease store unparseable", "path", p.cfg.LeaseFile, "error", err)
		return s
	}
	s.Leases = n
	s.LeasesKnown = true
	return s
}

func (p *DHCPProbe) countLeases(now time.Time) (int, error) {
	f, err := os.Open(p.cfg.LeaseFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(8)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if strings.HasPrefix(string(head), "address,") {
		return countKeaLeases(br, now)
	}
	return countDnsmasqLeases(br, now)
}

// countDnsmasqLeases counts unexpired entries of a dnsmasq lease file:
// "<expiry> <mac> <ip> <hostname> <client-id>". Expiry 0 never expires.
// The "duid" line of DHCPv6 servers is skipped.
func countDnsmasqLeases(r io.Reader, now time.Time) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[0] == "duid" {
			continue
		}
		exp, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("service: dnsmasq leases: %w", err)
		}
		if exp == 0 || exp > now.Unix() {
			n++
		}
	}
	return n, sc.Err()
}

// Kea memfile columns.
const (
	keaColAddress = 0
	keaColExpire  = 4
	keaColState   = 9
)

// countKeaLeases counts active leases in a Kea memfile. The file is
// append-only between cleanups, so the last row for an address wins.
func countKeaLeases(r io.Reader, now time.Time) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		return 0, fmt.Errorf("service: kea leases: header: %w", err)
	}

	active := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("service: kea leases: %w", err)
		}
		if len(rec) <= keaColExpire {
			continue
		}
		exp, err := strconv.ParseInt(rec[keaColExpire], 10, 64)
		if err != nil {
			continue
		}
		ok := exp > now.Unix()
		if len(rec) > keaColState && rec[keaColState] != "0" {
			ok = false
		}
		active[rec[keaColAddress]] = ok
	}

	n := 0
	for _, ok := range active {
		if ok {
			n++
		}
	}
	return n, nil
}
