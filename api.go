package epics2midas

import (
	base "github.com/ucn-triumf/epics2midas-modern/pkg/epics2midas"
)

// Re-exported errors for convenience.
var ErrChannelSinkClosed = base.ErrChannelSinkClosed

// BankName is the bank identifier carried by framed events.
const BankName = base.BankName

// Type aliases so consumers can import github.com/ucn-triumf/epics2midas-modern directly.
type (
	Config        = base.Config
	ChannelEntry  = base.ChannelEntry
	OPCUAConfig   = base.OPCUAConfig
	ModbusConfig  = base.ModbusConfig
	ODBConfig     = base.ODBConfig
	RecordConfig  = base.RecordConfig
	MetricsConfig = base.MetricsConfig

	Runtime       = base.Runtime
	RuntimeOption = base.RuntimeOption

	ChannelConfig = base.ChannelConfig
	ChannelState  = base.ChannelState
	Conn          = base.Conn
	Dialer        = base.Dialer
	VariableStore = base.VariableStore
	AlarmSink     = base.AlarmSink
	Severity      = base.Severity
	RecordSink    = base.RecordSink
	RecordFunc    = base.RecordFunc
	Observability = base.Observability
	Field         = base.Field
)

// Alarm severities and channel states.
const (
	SeverityInfo    = base.SeverityInfo
	SeverityWarning = base.SeverityWarning
	SeverityError   = base.SeverityError

	ChannelUnconnected = base.ChannelUnconnected
	ChannelConnected   = base.ChannelConnected
	ChannelFailed      = base.ChannelFailed
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime construction and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func Open(path string, opts ...RuntimeOption) (*Runtime, error) {
	return base.Open(path, opts...)
}

func WithDialer(d Dialer) RuntimeOption {
	return base.WithDialer(d)
}

func WithVariableStore(s VariableStore) RuntimeOption {
	return base.WithVariableStore(s)
}

func WithAlarmSink(a AlarmSink) RuntimeOption {
	return base.WithAlarmSink(a)
}

func WithRecordSink(s RecordSink) RuntimeOption {
	return base.WithRecordSink(s)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// Record sink adapters.
func NewCallbackRecordSink(name string, fn RecordFunc) RecordSink {
	return base.NewCallbackRecordSink(name, fn)
}

func NewChannelRecordSink(name string, buffer int) (RecordSink, <-chan []byte, func()) {
	return base.NewChannelRecordSink(name, buffer)
}

// DecodeRecord unpacks a framed event into its bank name and values.
func DecodeRecord(rec []byte) (name string, values []float32, err error) {
	return base.DecodeRecord(rec)
}
