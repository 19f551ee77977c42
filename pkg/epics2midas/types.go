package epics2midas

import (
	"github.com/ucn-triumf/epics2midas-modern/internal/domain"
	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

// ChannelConfig describes one remotely addressable process variable; the
// list order in the configuration fixes the channel indices.
type ChannelConfig = domain.ChannelConfig

// ChannelState tracks a channel handle's lifecycle.
type ChannelState = domain.ChannelState

// Conn is a live handle to one remote process variable.
type Conn = ports.Conn

// Dialer opens named channels on whatever transport backs the beamline.
type Dialer = ports.Dialer

// VariableStore mirrors the Measured array into the shared external store.
type VariableStore = ports.VariableStore

// AlarmSink is the single funnel for failure reports.
type AlarmSink = ports.AlarmSink

// Severity classifies an alarm report.
type Severity = ports.Severity

// RecordSink consumes framed binary records.
type RecordSink = ports.RecordSink

// Observability emits metrics/logs about sweeps, reads, and records.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Alarm severities re-exported for callers implementing AlarmSink.
const (
	SeverityInfo    = ports.SeverityInfo
	SeverityWarning = ports.SeverityWarning
	SeverityError   = ports.SeverityError
)

// Channel states re-exported for diagnostics.
const (
	ChannelUnconnected = domain.ChannelUnconnected
	ChannelConnected   = domain.ChannelConnected
	ChannelFailed      = domain.ChannelFailed
)
