package ports

// RecordSink consumes framed binary records produced by the emitter and
// hands them to any downstream system (event buffer, file, test channel).
type RecordSink interface {
	WriteRecord(rec []byte) error
	Name() string
}
