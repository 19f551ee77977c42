package measure

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

func TestStoreZeroInitialized(t *testing.T) {
	s := New(4, nil, nil)

	snap := s.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(snap))
	}
	for i, v := range snap {
		if v != 0 {
			t.Fatalf("slot %d not zero-initialized: %v", i, v)
		}
	}
}

func TestStoreSetOverwritesSlot(t *testing.T) {
	s := New(3, nil, nil)
	ctx := context.Background()

	s.Set(ctx, 1, 2.5)
	s.Set(ctx, 1, 7.75)

	if got := s.Get(1); got != 7.75 {
		t.Fatalf("expected latest value 7.75, got %v", got)
	}
	if got := s.Get(0); got != 0 {
		t.Fatalf("expected untouched slot to stay zero, got %v", got)
	}

	// Out-of-range writes are dropped, not panics.
	s.Set(ctx, -1, 1)
	s.Set(ctx, 3, 1)
}

func TestStoreWriteThroughFailureReportsWarning(t *testing.T) {
	backing := &failingVarStore{}
	alarm := &countingAlarm{}
	s := New(2, backing, alarm)

	s.Set(context.Background(), 0, 1.5)

	if got := s.Get(0); got != 1.5 {
		t.Fatalf("slot must keep the value despite mirror failure, got %v", got)
	}
	if alarm.count != 1 || alarm.lastSev != ports.SeverityWarning {
		t.Fatalf("expected one warning report, got count=%d sev=%v", alarm.count, alarm.lastSev)
	}
}

func TestStoreConcurrentSnapshotDuringWrites(t *testing.T) {
	s := New(8, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < 1000; n++ {
			s.Set(ctx, n%8, float32(n))
		}
	}()
	go func() {
		defer wg.Done()
		for n := 0; n < 1000; n++ {
			if snap := s.Snapshot(); len(snap) != 8 {
				t.Errorf("snapshot length %d", len(snap))
				return
			}
		}
	}()
	wg.Wait()
}

type failingVarStore struct{}

func (f *failingVarStore) EnsureMeasured(ctx context.Context, n int) error { return nil }
func (f *failingVarStore) SetMeasured(ctx context.Context, index int, v float64) error {
	return fmt.Errorf("store unavailable")
}
func (f *failingVarStore) Measured(ctx context.Context) ([]float64, error) { return nil, nil }

type countingAlarm struct {
	count   int
	lastSev ports.Severity
}

func (a *countingAlarm) Report(sev ports.Severity, source, msg string) {
	a.count++
	a.lastSev = sev
}
