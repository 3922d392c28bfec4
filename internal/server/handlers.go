package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/plexsphere/homerouter-exporter/internal/exposition"
)

const landingPage = `<html>
<head><title>Home Router Exporter</title></head>
<body>
<h1>Home Router Exporter</h1>
<p><a href="/metrics">Metrics</a></p>
<p><a href="/health">Health</a></p>
</body>
</html>
`

// scrapeTimeout returns the pass deadline for r.
func (s *Server) scrapeTimeout(r *http.Request) time.Duration {
	timeout := s.cfg.ScrapeTimeout
	if v := r.Header.Get("X-Prometheus-Scrape-Timeout-Seconds"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err == nil && secs > 0 {
			if d := time.Duration(secs * float64(time.Second)); d < timeout {
				timeout = d
			}
		}
	}
	return timeout
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.scrapeTimeout(r))
	defer cancel()

	ms, err := s.source.Collect(ctx)
	if err != nil {
		s.logger.Error("collection failed", "request_id", requestIDFrom(r.Context()), "error", err)
		http.Error(w, fmt.Sprintf("collection failed: %v", err), http.StatusInternalServerError)
		return
	}

	self, err := s.inst.Gather()
	if err != nil {
		// Partial self metrics are still returned by Gather.
		s.logger.Warn("gathering exporter metrics", "error", err)
	}

	var buf bytes.Buffer
	if err := exposition.Write(&buf, ms, self...); err != nil {
		s.logger.Error("encoding metrics", "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exposition.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = buf.WriteTo(w)
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(landingPage))
}
