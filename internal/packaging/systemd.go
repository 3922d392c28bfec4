package packaging

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// SystemdController abstracts systemctl. Methods that change state must be
// idempotent.
type SystemdController interface {
	IsAvailable() bool
	DaemonReload() error
	Enable(service string) error
	Disable(service string) error
	Restart(service string) error
	// Stop returns nil if the service is not running.
	Stop(service string) error
}

// RootChecker reports whether the process runs as root.
type RootChecker interface {
	IsRoot() bool
}

type systemctl struct {
	path string
}

// NewSystemdController returns a SystemdController that runs systemctl.
func NewSystemdController() SystemdController {
	return &systemctl{path: "systemctl"}
}

func (c *systemctl) IsAvailable() bool {
	_, err := exec.LookPath(c.path)
	return err == nil
}

func (c *systemctl) DaemonReload() error { return c.run("daemon-reload") }

func (c *systemctl) Enable(service string) error { return c.run("enable", service) }

func (c *systemctl) Disable(service string) error { return c.run("disable", service) }

func (c *systemctl) Restart(service string) error { return c.run("restart", service) }

func (c *systemctl) Stop(service string) error {
	if exec.Command(c.path, "is-active", "--quiet", service).Run() != nil {
		return nil
	}
	return c.run("stop", service)
}

func (c *systemctl) run(args ...string) error {
	out, err := exec.Command(c.path, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("packaging: systemctl %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return nil
}

type uidChecker struct{}

// NewRootChecker returns a RootChecker for the current process.
func NewRootChecker() RootChecker { return uidChecker{} }

func (uidChecker) IsRoot() bool { return os.Geteuid() == 0 }
