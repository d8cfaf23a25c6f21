package node

import (
	"context"
	"fmt"

	"github.com/wirebus/wirebus/pkg/config"
)

// Builder assembles a Node from optional overrides on top of the default
// configuration.
type Builder struct {
	appName    string
	configPath string

	network    string
	port       uint16
	hasNetwork bool
}

// NewBuilder creates a builder with defaults.
func NewBuilder(appName string) *Builder {
	return &Builder{appName: appName}
}

// WithConfigPath sets a YAML config file to load instead of the defaults.
func (b *Builder) WithConfigPath(path string) *Builder {
	b.configPath = path
	return b
}

// WithNetwork overrides the transport listen address with an IPv4 address and
// port.
func (b *Builder) WithNetwork(ipv4 string, port uint16) *Builder {
	b.network = ipv4
	b.port = port
	b.hasNetwork = true
	return b
}

// Build resolves the configuration and opens the node.
func (b *Builder) Build(ctx context.Context) (*Node, error) {
	cfg := config.DefaultConfig(b.appName)
	if b.configPath != "" {
		loaded, err := config.LoadFile(b.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
		cfg = loaded
		if cfg.AppName == "" {
			cfg.AppName = b.appName
		}
	}

	if b.hasNetwork {
		if err := cfg.SetNetwork(b.network, b.port); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNetworkAddress, err)
		}
	}

	return New(ctx, cfg)
}
