package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plexsphere/homerouter-exporter/internal/metrics"
	"github.com/plexsphere/homerouter-exporter/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metrics over HTTP",
	Long: "Serve metrics over HTTP until interrupted. Every scrape of /metrics runs\n" +
		"a fresh collection pass; nothing is cached between scrapes.",
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	collectors, err := buildCollectors(cfg, logger)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	agg := metrics.NewAggregator(cfg.Metrics, collectors, logger)
	inst := server.NewInstrumentation()
	agg.SetObserver(inst)

	logger.Info("starting homerouter-exporter",
		"version", buildVersion,
		"collectors", agg.Names(),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv := server.NewServer(cfg.Server, agg, inst, buildVersion, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("homerouter-exporter stopped")
	return nil
}

// commandContext returns cmd's context, falling back to Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
