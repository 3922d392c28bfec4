package packaging

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/plexsphere/homerouter-exporter/internal/config"
)

const defaultConfigHeader = `# homerouter-exporter configuration
# Every key below shows its default value.

`

// GenerateDefaultConfig renders config.yaml with every default spelled out.
// A non-empty listenAddr replaces the default listen address.
func GenerateDefaultConfig(listenAddr string) ([]byte, error) {
	cfg := config.Default()
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("packaging: render config: %w", err)
	}
	return append([]byte(defaultConfigHeader), body...), nil
}
