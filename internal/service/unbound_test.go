package service

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestUnboundCollector_Collect(t *testing.T) {
	commands := make(chan string, 1)
	sock := serveUnix(t, func(conn net.Conn) {
		line, err := bufio.NewReader(conn).ReadString('\n')
		if err != nil {
			return
		}
		commands <- line
		_, _ = io.WriteString(conn, strings.Join([]string{
			"thread0.num.queries=40",
			"total.num.queries=120",
			"total.num.cachehits=90",
			"total.num.cachemiss=30",
			"total.requestlist.exceeded=0",
			"time.now=1767348000.123456",
			"",
		}, "\n"))
	})

	c := NewUnboundCollector(SocketConfig{Socket: sock, Timeout: time.Second}, discardLogger())
	ms, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if cmd := <-commands; cmd != "UBCT1 stats_noreset\n" {
		t.Errorf("command = %q", cmd)
	}
	if len(ms) != 4 {
		t.Fatalf("Collect() returned %d metrics, want 4", len(ms))
	}
	if m, ok := findMetric(ms, "homerouter_dns_cache_hits_total"); !ok || m.Value != 90 {
		t.Errorf("cache hits = %+v, %v", m, ok)
	}
	if m, ok := findMetric(ms, "homerouter_dns_queries_total"); !ok || m.Value != 120 {
		t.Errorf("queries = %+v, %v", m, ok)
	}
}

func TestParseUnboundStats(t *testing.T) {
	stats, err := parseUnboundStats(strings.NewReader("total.num.queries=7\nbogus line\nhistogram.000000.000000.to.000000.000001=x\n"))
	if err != nil {
		t.Fatalf("parseUnboundStats() error = %v", err)
	}
	if len(stats) != 1 || stats["total.num.queries"] != 7 {
		t.Errorf("parseUnboundStats() = %v", stats)
	}
}

func TestParseUnboundStats_Error(t *testing.T) {
	_, err := parseUnboundStats(strings.NewReader("error remote control is disabled\n"))
	if err == nil {
		t.Fatal("parseUnboundStats() expected error")
	}
}
