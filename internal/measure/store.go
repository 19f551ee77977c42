package measure

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

// Store holds the latest measured value per channel: one float32 slot per
// index, no history. Writes come from the poll sweep; snapshots may be
// taken from a different goroutine at any time. Each slot is a bit-cast
// atomic so a reader never observes a torn value, and no lock spans the
// whole sweep or the whole snapshot.
type Store struct {
	slots   []atomic.Uint32
	backing ports.VariableStore
	alarm   ports.AlarmSink
}

// New allocates a zero-initialized store of n slots. backing may be nil
// when no external mirror is wanted (tests, pull-only setups).
func New(n int, backing ports.VariableStore, alarm ports.AlarmSink) *Store {
	if n < 0 {
		n = 0
	}
	return &Store{
		slots:   make([]atomic.Uint32, n),
		backing: backing,
		alarm:   alarm,
	}
}

// Len returns the fixed slot count.
func (s *Store) Len() int { return len(s.slots) }

// Set overwrites the slot and mirrors it into the external store. A mirror
// failure is reported as a warning; the in-memory slot keeps the new value
// either way.
func (s *Store) Set(ctx context.Context, index int, v float32) {
	if index < 0 || index >= len(s.slots) {
		return
	}
	s.slots[index].Store(math.Float32bits(v))

	if s.backing == nil {
		return
	}
	if err := s.backing.SetMeasured(ctx, index, float64(v)); err != nil && s.alarm != nil {
		s.alarm.Report(ports.SeverityWarning, "measure",
			fmt.Sprintf("mirror of slot %d failed: %v", index, err))
	}
}

// Get returns the latest value for one slot.
func (s *Store) Get(index int) float32 {
	if index < 0 || index >= len(s.slots) {
		return 0
	}
	return math.Float32frombits(s.slots[index].Load())
}

// Snapshot copies all slots in index order. Slots are read one by one, so
// the result is "latest value as of call time per index" rather than a
// consistent cross-index cut.
func (s *Store) Snapshot() []float32 {
	out := make([]float32, len(s.slots))
	for i := range s.slots {
		out[i] = math.Float32frombits(s.slots[i].Load())
	}
	return out
}
