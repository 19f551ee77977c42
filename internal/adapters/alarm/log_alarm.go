package alarm

import (
	"log"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

// LogSink funnels alarm reports to the process log and counts them. It is
// the in-tree stand-in for the facility-wide alarm system; delivery beyond
// the log line is out of scope.
type LogSink struct {
	obs ports.Observability
}

// NewLogSink creates the sink. obs may be nil; reports are then log-only.
func NewLogSink(obs ports.Observability) *LogSink {
	return &LogSink{obs: obs}
}

func (s *LogSink) Report(sev ports.Severity, source, msg string) {
	log.Printf("%s: %s: %s", sev, source, msg)
	if s.obs != nil {
		s.obs.IncCounter("e2m_alarms_total", 1)
	}
}

var _ ports.AlarmSink = (*LogSink)(nil)
