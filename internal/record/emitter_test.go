package record

import (
	"encoding/binary"
	"math"
	"testing"
)

type fixedSource struct {
	values []float32
}

func (s *fixedSource) Snapshot() []float32 {
	out := make([]float32, len(s.values))
	copy(out, s.values)
	return out
}

func TestEmitPayloadLength(t *testing.T) {
	for _, n := range []int{0, 1, 3, 16} {
		src := &fixedSource{values: make([]float32, n)}
		e, err := NewEmitter(src, n)
		if err != nil {
			t.Fatalf("n=%d: new emitter: %v", n, err)
		}
		rec, err := e.Emit()
		if err != nil {
			t.Fatalf("n=%d: emit: %v", n, err)
		}
		if len(rec) != 4*n {
			t.Fatalf("n=%d: expected %d bytes, got %d", n, 4*n, len(rec))
		}
	}
}

func TestEmitZeroRecordBeforeAnySweep(t *testing.T) {
	e, err := NewEmitter(&fixedSource{values: make([]float32, 3)}, 3)
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}
	rec, err := e.Emit()
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	for i := 0; i < 3; i++ {
		if bits := binary.LittleEndian.Uint32(rec[4*i:]); bits != 0 {
			t.Fatalf("slot %d not zero: %#x", i, bits)
		}
	}
}

func TestEmitEncodesValuesInIndexOrder(t *testing.T) {
	src := &fixedSource{values: []float32{1.5, -2.25, 1e6}}
	e, err := NewEmitter(src, 3)
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}
	rec, err := e.Emit()
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	for i, want := range src.values {
		got := math.Float32frombits(binary.LittleEndian.Uint32(rec[4*i:]))
		if got != want {
			t.Fatalf("slot %d: got %v, want %v", i, got, want)
		}
	}
}

func TestEmitRejectsLengthMismatch(t *testing.T) {
	e, err := NewEmitter(&fixedSource{values: make([]float32, 2)}, 3)
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}
	if _, err := e.Emit(); err == nil {
		t.Fatalf("expected length validation error")
	}
}

func TestEventFrameRoundTrip(t *testing.T) {
	src := &fixedSource{values: []float32{4.5, 0, -1}}
	e, err := NewEmitter(src, 3)
	if err != nil {
		t.Fatalf("new emitter: %v", err)
	}

	rec, err := e.EmitEvent()
	if err != nil {
		t.Fatalf("emit event: %v", err)
	}

	name, values, err := Decode(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if name != BankName {
		t.Fatalf("expected bank %q, got %q", BankName, name)
	}
	if len(values) != 3 || values[0] != 4.5 || values[2] != -1 {
		t.Fatalf("unexpected decoded values: %v", values)
	}
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	if _, _, err := Decode([]byte{1, 2, 3}); err != ErrShortRecord {
		t.Fatalf("expected ErrShortRecord, got %v", err)
	}

	e, _ := NewEmitter(&fixedSource{values: []float32{1}}, 1)
	rec, err := e.EmitEvent()
	if err != nil {
		t.Fatalf("emit event: %v", err)
	}

	// Wrong type tag.
	bad := append([]byte(nil), rec...)
	binary.LittleEndian.PutUint32(bad[4:8], 42)
	if _, _, err := Decode(bad); err == nil {
		t.Fatalf("expected type tag error")
	}

	// Truncated payload.
	if _, _, err := Decode(rec[:len(rec)-1]); err == nil {
		t.Fatalf("expected payload size error")
	}
}
