package frontend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Default poll timing.
const (
	DefaultInterval = time.Second
	DefaultTick     = 500 * time.Millisecond
)

// Sweeper runs one pass over all channels, returning the failure count.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Cycle drives the periodic sweep. It alternates between Idle (waiting for
// the next tick) and Sweeping, starting a sweep only when the configured
// minimum interval has elapsed since the previous one. The tick pause just
// throttles how often the clock is checked and is independent of the
// sampling interval.
type Cycle struct {
	sampler  Sweeper
	interval time.Duration
	tick     time.Duration

	lastSweep time.Time
	sweeps    atomic.Uint64
}

// NewCycle builds a poll cycle over a sweeper. interval is the minimum
// spacing between sweeps; tick is the pause between clock checks.
func NewCycle(sampler Sweeper, interval, tick time.Duration) (*Cycle, error) {
	if sampler == nil {
		return nil, fmt.Errorf("cycle: sampler is required")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Cycle{sampler: sampler, interval: interval, tick: tick}, nil
}

// Tick performs one clock check: if the interval since the last sweep has
// elapsed it runs a sweep and records the new timestamp, otherwise it does
// nothing. Returns true when a sweep ran.
func (c *Cycle) Tick(ctx context.Context) bool {
	if !c.lastSweep.IsZero() && time.Since(c.lastSweep) < c.interval {
		return false
	}
	c.sampler.Sweep(ctx)
	c.lastSweep = time.Now()
	c.sweeps.Add(1)
	return true
}

// Sweeps returns how many sweeps have completed.
func (c *Cycle) Sweeps() uint64 { return c.sweeps.Load() }

// Run loops Tick until the context is cancelled, sleeping one tick pause
// between clock checks so the host process is not monopolized. There is no
// terminal state of its own; cancellation is the only way out.
func (c *Cycle) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}
