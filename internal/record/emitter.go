package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Bank framing constants. The layout is wire-locked: a 12-byte header
// (4-byte bank name, uint32 type tag, uint32 payload size) followed by the
// float payload.
const (
	BankName  = "E000"
	TypeFloat = 9

	headerLen = 12
)

// ErrShortRecord is returned by Decode for records smaller than a header.
var ErrShortRecord = errors.New("record: short record")

// Source provides the latest measured values, one float32 per channel in
// index order.
type Source interface {
	Snapshot() []float32
}

// Emitter packages store snapshots into binary records on demand. It is
// safe to call from a different goroutine than the one sweeping the store.
type Emitter struct {
	src Source
	n   int
}

// NewEmitter binds the emitter to a source with a fixed channel count.
func NewEmitter(src Source, n int) (*Emitter, error) {
	if src == nil {
		return nil, errors.New("record: source is required")
	}
	if n < 0 {
		return nil, fmt.Errorf("record: invalid channel count %d", n)
	}
	return &Emitter{src: src, n: n}, nil
}

// Emit returns the bare payload: n consecutive little-endian float32
// values in channel-index order, exactly 4*n bytes. n = 0 yields an empty
// record.
func (e *Emitter) Emit() ([]byte, error) {
	snap := e.src.Snapshot()
	if len(snap) != e.n {
		return nil, fmt.Errorf("record: snapshot length %d, want %d", len(snap), e.n)
	}
	buf := make([]byte, 4*len(snap))
	for i, v := range snap {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf, nil
}

// EmitEvent returns the payload framed as a measurement bank, the form
// handed to downstream event consumers.
func (e *Emitter) EmitEvent() ([]byte, error) {
	payload, err := e.Emit()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, headerLen+len(payload))
	copy(buf[0:4], BankName)
	binary.LittleEndian.PutUint32(buf[4:8], TypeFloat)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(payload)))
	copy(buf[headerLen:], payload)
	return buf, nil
}

// Decode unpacks a framed event back into its bank name and values.
func Decode(rec []byte) (name string, values []float32, err error) {
	if len(rec) < headerLen {
		return "", nil, ErrShortRecord
	}
	name = string(rec[0:4])
	typ := binary.LittleEndian.Uint32(rec[4:8])
	size := binary.LittleEndian.Uint32(rec[8:12])
	if typ != TypeFloat {
		return "", nil, fmt.Errorf("record: unsupported type tag %d", typ)
	}
	if size%4 != 0 || int(size) != len(rec)-headerLen {
		return "", nil, fmt.Errorf("record: payload size %d does not match record length %d", size, len(rec))
	}
	values = make([]float32, size/4)
	for i := range values {
		bits := binary.LittleEndian.Uint32(rec[headerLen+4*i:])
		values[i] = math.Float32frombits(bits)
	}
	return name, values, nil
}
