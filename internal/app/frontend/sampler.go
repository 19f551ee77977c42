package frontend

import (
	"context"
	"fmt"
	"time"

	"github.com/ucn-triumf/epics2midas-modern/internal/measure"
	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

// DefaultReadTimeout bounds a single channel read.
const DefaultReadTimeout = 30 * time.Second

// Sampler reads one channel at a time and writes successes into the
// measurement store. A failed read is reported and leaves the previous
// slot value untouched; it never aborts the surrounding sweep.
type Sampler struct {
	reg         *Registry
	store       *measure.Store
	alarm       ports.AlarmSink
	obs         ports.Observability
	readTimeout time.Duration
}

// NewSampler wires a sampler over a connected registry.
func NewSampler(reg *Registry, store *measure.Store, alarm ports.AlarmSink, obs ports.Observability, readTimeout time.Duration) (*Sampler, error) {
	if reg == nil {
		return nil, fmt.Errorf("sampler: registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("sampler: store is required")
	}
	if reg.Len() != store.Len() {
		return nil, fmt.Errorf("sampler: registry has %d channels, store has %d slots", reg.Len(), store.Len())
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Sampler{
		reg:         reg,
		store:       store,
		alarm:       alarm,
		obs:         obs,
		readTimeout: readTimeout,
	}, nil
}

// SampleOne reads the current value of one channel, blocking up to the
// read timeout. Channels without a handle (disabled, write-only, or never
// connected) produce no value and no error.
func (s *Sampler) SampleOne(ctx context.Context, index int) (float32, bool, error) {
	conn, ok := s.reg.Handle(index)
	if !ok {
		return 0, false, nil
	}

	rctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	v, err := conn.Read(rctx)
	if err != nil {
		name := s.reg.Config(index).Name
		return 0, false, fmt.Errorf("read channel %q: %w", name, err)
	}
	return float32(v), true, nil
}

// Sweep performs one pass over all channel indices. Failures are funneled
// to the alarm sink per channel and the sweep continues; the return value
// is the number of reads that failed.
func (s *Sampler) Sweep(ctx context.Context) int {
	start := time.Now()
	var failed int
	for i := 0; i < s.reg.Len(); i++ {
		v, ok, err := s.SampleOne(ctx, i)
		if err != nil {
			failed++
			if s.alarm != nil {
				s.alarm.Report(ports.SeverityError, "frontend_read", err.Error())
			}
			if s.obs != nil {
				s.obs.IncCounter("e2m_read_failures_total", 1)
			}
			continue
		}
		if !ok {
			continue
		}
		s.store.Set(ctx, i, v)
		if s.obs != nil {
			s.obs.IncCounter("e2m_reads_total", 1)
		}
	}
	if s.obs != nil {
		s.obs.ObserveLatency("e2m_sweep_duration_seconds", time.Since(start).Seconds())
	}
	return failed
}
