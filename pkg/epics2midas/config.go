package epics2midas

import (
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/modbus"
	"github.com/ucn-triumf/epics2midas-modern/internal/adapters/opcua"
	"github.com/ucn-triumf/epics2midas-modern/internal/app/config"
)

// Config re-exports the frontend configuration so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// ChannelEntry is one row of the channel list.
	ChannelEntry = config.ChannelConfig
	// OPCUAConfig holds OPC UA session details.
	OPCUAConfig = opcua.Config
	// ModbusConfig holds Modbus bridge details.
	ModbusConfig = modbus.Config
	// ODBConfig configures the SQL mirror of the Variables tree.
	ODBConfig = config.ODBConfig
	// RecordConfig configures the on-disk record file.
	RecordConfig = config.RecordConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
