// Package cmd implements the homerouter-exporter CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plexsphere/homerouter-exporter/internal/config"
)

var (
	cfgFile       string
	logLevel      string
	listenAddr    string
	keaSocket     string
	unboundSocket string
	collectorList string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(versionTemplate())
}

func versionTemplate() string {
	return fmt.Sprintf("homerouter-exporter version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate)
}

var rootCmd = &cobra.Command{
	Use:   "homerouter-exporter",
	Short: "Prometheus exporter for home routers",
	Long: "homerouter-exporter serves the health of a Linux home router as Prometheus\n" +
		"metrics: system load, interfaces and routes read over netlink, firewall set\n" +
		"counters, WireGuard peers and the DHCP, DNS and WAN services.\n" +
		"Without a subcommand it runs the HTTP server.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")
	pf.StringVar(&listenAddr, "web.listen-address", "", "address to serve metrics on (overrides config)")
	pf.StringVar(&keaSocket, "collector.kea.socket", "", "Kea control socket path (overrides config)")
	pf.StringVar(&unboundSocket, "collector.unbound.socket", "", "Unbound control socket path (overrides config)")
	pf.StringVar(&collectorList, "collectors", "", "comma-separated collectors to run (overrides config)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(versionTemplate())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if keaSocket != "" {
		cfg.Service.Kea.Socket = keaSocket
	}
	if unboundSocket != "" {
		cfg.Service.Unbound.Socket = unboundSocket
	}
	if collectorList != "" {
		cfg.Metrics.Enabled = splitList(collectorList)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
