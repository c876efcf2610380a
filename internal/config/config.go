// Package config holds the receiver daemon's configuration.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rudpnet/rudp/internal/protocol"
)

// Config is the receiver daemon configuration, loadable from a YAML file.
type Config struct {
	ListenPort uint16 `yaml:"listen_port"`
	MTU        uint16 `yaml:"mtu"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries int    `yaml:"max_retries"`
	Debug      bool   `yaml:"debug"`

	// BufferSize is the receive buffer capacity in bytes. Messages larger
	// than this are truncated by the protocol.
	BufferSize int `yaml:"buffer_size"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// Default returns a configuration with the protocol defaults and a 16 MiB
// receive buffer.
func Default() *Config {
	return &Config{
		ListenPort: 9000,
		MTU:        protocol.DefaultMTU,
		TimeoutMs:  protocol.DefaultTimeoutMs,
		MaxRetries: protocol.DefaultMaxRetries,
		BufferSize: 16 * 1024 * 1024,
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9091",
			Path:   "/metrics",
		},
	}
}

// Load reads and validates a YAML configuration file. Fields absent from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against the protocol's limits.
func (c *Config) Validate() error {
	if c.ListenPort == 0 {
		return fmt.Errorf("listen_port must be set")
	}
	if c.MTU < protocol.MinMTU {
		return fmt.Errorf("mtu %d below protocol minimum %d", c.MTU, protocol.MinMTU)
	}
	if c.TimeoutMs < protocol.MinTimeoutMs {
		return fmt.Errorf("timeout_ms %d below protocol minimum %d", c.TimeoutMs, protocol.MinTimeoutMs)
	}
	if c.TimeoutMs > 0xFFFF {
		return fmt.Errorf("timeout_ms %d does not fit the handshake payload", c.TimeoutMs)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	if c.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be positive")
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen %q: %w", c.Metrics.Listen, err)
		}
		if c.Metrics.Path == "" || c.Metrics.Path[0] != '/' {
			return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
		}
	}
	return nil
}
