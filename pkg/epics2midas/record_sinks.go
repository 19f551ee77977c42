package epics2midas

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ucn-triumf/epics2midas-modern/internal/record"
)

// BankName is the bank identifier carried by framed events.
const BankName = record.BankName

// DecodeRecord unpacks a framed event into its bank name and values.
func DecodeRecord(rec []byte) (name string, values []float32, err error) {
	return record.Decode(rec)
}

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("epics2midas: channel sink closed")

// RecordFunc receives one emitted record. The slice is owned by the callee.
type RecordFunc func(rec []byte) error

// NewCallbackRecordSink adapts a RecordFunc into a full RecordSink so callers
// can plug arbitrary functions without defining structs.
func NewCallbackRecordSink(name string, fn RecordFunc) RecordSink {
	if name == "" {
		name = "callback"
	}
	return &callbackRecordSink{name: name, fn: fn}
}

// NewChannelRecordSink exposes records via a channel; it returns the sink, the
// read-only channel, and a close function that the caller should invoke during
// shutdown.
func NewChannelRecordSink(name string, buffer int) (RecordSink, <-chan []byte, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan []byte, buffer)
	s := &channelRecordSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackRecordSink struct {
	name string
	fn   RecordFunc
}

func (s *callbackRecordSink) WriteRecord(rec []byte) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(rec)
}

func (s *callbackRecordSink) Name() string { return s.name }

type channelRecordSink struct {
	name   string
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

func (s *channelRecordSink) WriteRecord(rec []byte) error {
	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	out := make([]byte, len(rec))
	copy(out, rec)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case s.ch <- out:
		return nil
	}
}

func (s *channelRecordSink) Name() string { return s.name }

func (s *channelRecordSink) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}
