package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plexsphere/homerouter-exporter/internal/packaging"
)

var installStart bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install homerouter-exporter as a systemd service",
	Long: "Copy this binary to /usr/local/bin, write a default config if none exists\n" +
		"and install a systemd unit. --web.listen-address is written into a new config.",
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installStart, "now", false, "enable and start the service after installing")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(logLevel)

	cfg := packaging.InstallConfig{
		ListenAddr: listenAddr,
		Start:      installStart,
	}
	installer := packaging.NewInstaller(cfg, packaging.NewSystemdController(), packaging.NewRootChecker(), logger)
	if err := installer.Install(); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "homerouter-exporter installed successfully")
	return nil
}
