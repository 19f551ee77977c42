package ports

// Severity classifies an alarm report.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// AlarmSink is the single funnel for failure reports. It does no retrying
// and no filtering; callers decide whether a condition is fatal. The
// source tag identifies the reporting routine, the message carries the
// channel/context detail.
type AlarmSink interface {
	Report(sev Severity, source, msg string)
}
