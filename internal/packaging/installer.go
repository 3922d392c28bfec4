package packaging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/plexsphere/homerouter-exporter/internal/fsutil"
)

// Installer installs and removes the exporter's systemd service.
type Installer struct {
	cfg        InstallConfig
	systemd    SystemdController
	root       RootChecker
	executable func() (string, error)
	logger     *slog.Logger
}

// NewInstaller creates an Installer with defaults applied.
func NewInstaller(cfg InstallConfig, systemd SystemdController, root RootChecker, logger *slog.Logger) *Installer {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{
		cfg:        cfg,
		systemd:    systemd,
		root:       root,
		executable: os.Executable,
		logger:     logger.With("component", "packaging"),
	}
}

// Install copies the binary, writes config.yaml if absent, writes the unit
// file and reloads systemd. With Start set the unit is also enabled and
// (re)started.
func (ins *Installer) Install() error {
	if err := ins.cfg.Validate(); err != nil {
		return err
	}
	if !ins.root.IsRoot() {
		return errors.New("packaging: install requires root privileges")
	}
	if !ins.systemd.IsAvailable() {
		return errors.New("packaging: systemd is not available")
	}

	if err := os.MkdirAll(ins.cfg.ConfigDir, 0o755); err != nil {
		return fmt.Errorf("packaging: create directory %s: %w", ins.cfg.ConfigDir, err)
	}
	if err := ins.copyBinary(); err != nil {
		return err
	}
	if err := ins.writeConfig(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(ins.cfg.UnitFilePath), 0o755); err != nil {
		return fmt.Errorf("packaging: create unit file directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(ins.cfg.UnitFilePath, []byte(GenerateUnitFile(ins.cfg)), 0o644); err != nil {
		return fmt.Errorf("packaging: write unit file: %w", err)
	}
	ins.logger.Info("unit file written", "path", ins.cfg.UnitFilePath)

	if err := ins.systemd.DaemonReload(); err != nil {
		return fmt.Errorf("packaging: daemon-reload: %w", err)
	}

	if !ins.cfg.Start {
		return nil
	}
	if err := ins.systemd.Enable(ins.cfg.ServiceName); err != nil {
		return fmt.Errorf("packaging: enable: %w", err)
	}
	if err := ins.systemd.Restart(ins.cfg.ServiceName); err != nil {
		return fmt.Errorf("packaging: start: %w", err)
	}
	ins.logger.Info("service started", "service", ins.cfg.ServiceName)
	return nil
}

// Uninstall stops and removes the service and the binary. With purge the
// config directory is removed as well.
func (ins *Installer) Uninstall(purge bool) error {
	if !ins.root.IsRoot() {
		return errors.New("packaging: uninstall requires root privileges")
	}
	if _, err := os.Stat(ins.cfg.UnitFilePath); errors.Is(err, os.ErrNotExist) {
		ins.logger.Info("service is not installed, nothing to do")
		return nil
	}

	// Best effort; the unit may already be stopped or disabled.
	if err := ins.systemd.Stop(ins.cfg.ServiceName); err != nil {
		ins.logger.Warn("stop service", "error", err)
	}
	if err := ins.systemd.Disable(ins.cfg.ServiceName); err != nil {
		ins.logger.Warn("disable service", "error", err)
	}

	if err := os.Remove(ins.cfg.UnitFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("packaging: remove unit file: %w", err)
	}
	ins.logger.Info("unit file removed", "path", ins.cfg.UnitFilePath)

	if err := ins.systemd.DaemonReload(); err != nil {
		return fmt.Errorf("packaging: daemon-reload: %w", err)
	}

	if err := os.Remove(ins.cfg.BinaryPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("packaging: remove binary: %w", err)
	}
	ins.logger.Info("binary removed", "path", ins.cfg.BinaryPath)

	if purge {
		if err := os.RemoveAll(ins.cfg.ConfigDir); err != nil {
			return fmt.Errorf("packaging: remove directory %s: %w", ins.cfg.ConfigDir, err)
		}
		ins.logger.Info("directory removed", "path", ins.cfg.ConfigDir)
	}
	return nil
}

func (ins *Installer) copyBinary() error {
	src, err := ins.executable()
	if err != nil {
		return fmt.Errorf("packaging: resolve executable path: %w", err)
	}
	if src, err = filepath.EvalSymlinks(src); err != nil {
		return fmt.Errorf("packaging: resolve symlinks: %w", err)
	}
	if src == ins.cfg.BinaryPath {
		ins.logger.Info("binary already at install path", "path", src)
		return nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("packaging: read binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(ins.cfg.BinaryPath), 0o755); err != nil {
		return fmt.Errorf("packaging: create binary directory: %w", err)
	}
	// Atomic replace keeps a running instance's executable intact.
	if err := fsutil.WriteFileAtomic(ins.cfg.BinaryPath, data, 0o755); err != nil {
		return fmt.Errorf("packaging: install binary: %w", err)
	}
	ins.logger.Info("binary installed", "src", src, "dst", ins.cfg.BinaryPath)
	return nil
}

func (ins *Installer) writeConfig() error {
	path := ins.cfg.ConfigPath()
	_, err := os.Stat(path)
	switch {
	case err == nil:
		ins.logger.Info("existing config preserved", "path", path)
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("packaging: stat config: %w", err)
	}

	content, err := GenerateDefaultConfig(ins.cfg.ListenAddr)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("packaging: write config: %w", err)
	}
	ins.logger.Info("default config written", "path", path)
	return nil
}
