package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/modbus"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/opcua"
	"github.com/ucn-triumf/epics2midas-modern/internal/domain"
)

// Config is the frontend configuration, read once at startup. The channel
// list fixes N and the index order for the process lifetime; Enabled and
// Names are not re-read after initialization.
type Config struct {
	Equipment string `yaml:"equipment"`
	Source    string `yaml:"source"`

	UpdateIntervalMs int `yaml:"update_interval_ms"`
	TickMs           int `yaml:"tick_ms"`
	RecordIntervalMs int `yaml:"record_interval_ms"`
	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
	ReadTimeoutMs    int `yaml:"read_timeout_ms"`

	Channels []ChannelConfig `yaml:"channels"`

	OPCUA   opcua.Config  `yaml:"opcua"`
	Modbus  modbus.Config `yaml:"modbus"`
	ODB     ODBConfig     `yaml:"odb"`
	Record  RecordConfig  `yaml:"record"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ChannelConfig is one entry of the channel list. Index order in the file
// is channel order, so the per-channel settings cannot get out of step the
// way parallel arrays can.
type ChannelConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

type ODBConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type RecordConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Equipment == "" {
		c.Equipment = "EPICS"
	}
	if c.Source == "" {
		c.Source = "opcua"
	}
	if c.UpdateIntervalMs == 0 {
		c.UpdateIntervalMs = 1000
	}
	if c.TickMs == 0 {
		c.TickMs = 500
	}
	if c.RecordIntervalMs == 0 {
		c.RecordIntervalMs = 2000
	}
	if c.ConnectTimeoutMs == 0 {
		c.ConnectTimeoutMs = 5000
	}
	if c.ReadTimeoutMs == 0 {
		c.ReadTimeoutMs = 30000
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.ODB.Table == "" {
		c.ODB.Table = "variables"
	}

	c.OPCUA.ApplyDefaults()
	c.Modbus.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Equipment == "" {
		return fmt.Errorf("equipment is required")
	}
	if c.UpdateIntervalMs < 0 || c.TickMs <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	if c.RecordIntervalMs < 0 {
		return fmt.Errorf("record_interval_ms must be >= 0")
	}
	if c.ConnectTimeoutMs <= 0 || c.ReadTimeoutMs <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	seen := make(map[string]struct{}, len(c.Channels))
	for i, ch := range c.Channels {
		if !ch.Enabled {
			continue
		}
		if ch.Name == "" {
			return fmt.Errorf("channel %d: name is required for enabled channels", i)
		}
		if _, dup := seen[ch.Name]; dup {
			return fmt.Errorf("channel %d: duplicate name %q", i, ch.Name)
		}
		seen[ch.Name] = struct{}{}
	}

	switch c.Source {
	case "opcua":
		if c.HasAddressedChannels() {
			if err := c.OPCUA.Validate(); err != nil {
				return fmt.Errorf("opcua config: %w", err)
			}
		}
	case "modbus":
		if c.HasAddressedChannels() {
			if err := c.Modbus.Validate(); err != nil {
				return fmt.Errorf("modbus config: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	return nil
}

// HasAddressedChannels reports whether any enabled channel points at a
// remote variable, i.e. whether a transport is needed at all.
func (c *Config) HasAddressedChannels() bool {
	for _, ch := range c.Channels {
		if ch.Enabled && ch.Address != "" {
			return true
		}
	}
	return false
}

// DomainChannels converts the list into domain configs with assigned
// indices.
func (c *Config) DomainChannels() []domain.ChannelConfig {
	out := make([]domain.ChannelConfig, len(c.Channels))
	for i, ch := range c.Channels {
		out[i] = domain.ChannelConfig{
			Index:   i,
			Name:    ch.Name,
			Address: ch.Address,
			Enabled: ch.Enabled,
		}
	}
	return out
}

// Duration helpers so callers do not repeat the millisecond conversion.

func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMs) * time.Millisecond
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

func (c *Config) RecordInterval() time.Duration {
	return time.Duration(c.RecordIntervalMs) * time.Millisecond
}

func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}
