package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plexsphere/homerouter-exporter/internal/exposition"
	"github.com/plexsphere/homerouter-exporter/internal/metrics"
	"github.com/plexsphere/homerouter-exporter/internal/server"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass and print the metrics",
	Long: "Run one collection pass and print the result to stdout in the Prometheus\n" +
		"text format. Exits non-zero when the pass fails.",
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	collectors, err := buildCollectors(cfg, logger)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Server.ScrapeTimeout)
	defer cancel()
	return collectOnce(ctx, metrics.NewAggregator(cfg.Metrics, collectors, logger), cmd)
}

func collectOnce(ctx context.Context, src server.Source, cmd *cobra.Command) error {
	ms, err := src.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	var buf bytes.Buffer
	if err := exposition.Write(&buf, ms); err != nil {
		return fmt.Errorf("collect: encode: %w", err)
	}
	_, err = buf.WriteTo(cmd.OutOrStdout())
	return err
}
