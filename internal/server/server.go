package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
)

// Source runs one collection pass. *metrics.Aggregator implements it.
type Source interface {
	Collect(ctx context.Context) ([]metrics.Metric, error)
}

// Server serves /metrics, /health and a landing page.
type Server struct {
	cfg     Config
	source  Source
	inst    *Instrumentation
	limiter *rate.Limiter
	version string
	logger  *slog.Logger
}

// NewServer creates a Server. Config defaults are applied automatically. A
// nil inst creates a fresh Instrumentation.
func NewServer(cfg Config, source Source, inst *Instrumentation, version string, logger *slog.Logger) *Server {
	cfg.ApplyDefaults()
	if inst == nil {
		inst = NewInstrumentation()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		source:  source,
		inst:    inst,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		version: version,
		logger:  logger.With("component", "server"),
	}
}

// Handler returns the routed and wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.wrap("metrics", s.handleMetrics, true))
	mux.HandleFunc("/health", s.wrap("health", s.handleHealth, false))
	mux.HandleFunc("/", s.wrap("root", s.handleRoot, false))
	return mux
}

// Start listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully. The
// listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("server started", "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-errCh

	s.logger.Info("server stopped")
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
