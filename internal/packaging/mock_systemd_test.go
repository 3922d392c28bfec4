package packaging

type mockSystemdController struct {
	available       bool
	daemonReloadErr error
	enableErr       error
	restartErr      error
	stopErr         error
	disableErr      error

	daemonReloadCalls int
	enableCalls       []string
	restartCalls      []string
	stopCalls         []string
	disableCalls      []string
}

func (m *mockSystemdController) IsAvailable() bool { return m.available }

func (m *mockSystemdController) DaemonReload() error {
	m.daemonReloadCalls++
	return m.daemonReloadErr
}

func (m *mockSystemdController) Enable(service string) error {
	m.enableCalls = append(m.enableCalls, service)
	return m.enableErr
}

func (m *mockSystemdController) Restart(service string) error {
	m.restartCalls = append(m.restartCalls, service)
	return m.restartErr
}

func (m *mockSystemdController) Stop(service string) error {
	m.stopCalls = append(m.stopCalls, service)
	return m.stopErr
}

func (m *mockSystemdController) Disable(service string) error {
	m.disableCalls = append(m.disableCalls, service)
	return m.disableErr
}

type mockRootChecker struct {
	isRoot bool
}

func (m *mockRootChecker) IsRoot() bool { return m.isRoot }
