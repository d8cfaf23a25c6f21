package config

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/multiformats/go-multiaddr"
)

// Config represents the configuration for a pub/sub node.
type Config struct {
	// AppName identifies the application in diagnostics. Required.
	AppName string `yaml:"app_name"`

	// ListenAddresses are the transport listen multiaddrs.
	ListenAddresses []string `yaml:"listen_addresses"`

	// BootstrapPeers are multiaddrs of peers to dial on startup.
	BootstrapPeers []string `yaml:"bootstrap_peers"`

	// IdentityKeyFile is an optional path to a persisted transport identity key.
	// A fresh identity is generated when empty.
	IdentityKeyFile string `yaml:"identity_key_file"`

	// ConnectTimeout bounds the initial transport bring-up.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// QuietMode suppresses debug/info logs.
	QuietMode bool `yaml:"quiet_mode"`
}

// DefaultConfig returns a default node configuration.
func DefaultConfig(appName string) *Config {
	return &Config{
		AppName:         appName,
		ListenAddresses: []string{"/ip4/0.0.0.0/tcp/0"},
		BootstrapPeers:  nil,
		ConnectTimeout:  time.Second * 30,
		QuietMode:       false,
	}
}

// LoadFile loads a YAML config from path, rejecting unknown fields.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	cfg := &Config{}
	if err := DecodeStrict(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetNetwork replaces the listen addresses with a single address built from an
// IPv4 string and a port. The address must parse as IPv4.
func (c *Config) SetNetwork(ipv4 string, port uint16) error {
	addr, err := netip.ParseAddr(ipv4)
	if err != nil {
		return fmt.Errorf("invalid network address %q: %w", ipv4, err)
	}
	if !addr.Is4() {
		return fmt.Errorf("invalid network address %q: not an IPv4 address", ipv4)
	}
	c.ListenAddresses = []string{fmt.Sprintf("/ip4/%s/tcp/%d", addr, port)}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name is required")
	}
	for _, s := range c.ListenAddresses {
		if _, err := multiaddr.NewMultiaddr(s); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", s, err)
		}
	}
	for _, s := range c.BootstrapPeers {
		if _, err := multiaddr.NewMultiaddr(s); err != nil {
			return fmt.Errorf("invalid bootstrap peer %q: %w", s, err)
		}
	}
	return nil
}
