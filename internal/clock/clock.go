// Package clock produces the one-second ticks that drive every running timer.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Tick is one logical step. Seq increases by one per tick produced by a
// driver, which lets consumers drop a tick they have already applied.
type Tick struct {
	Seq uint64
	At  time.Time
}

// Interval is the fixed tick period.
const Interval = time.Second

// Driver emits ticks at a fixed interval until its context is cancelled.
type Driver struct {
	clock    Clock
	interval time.Duration
	seq      uint64
}

// NewDriver returns a driver stamping ticks with c. A non-positive interval
// falls back to Interval.
func NewDriver(c Clock, interval time.Duration) *Driver {
	if c == nil {
		c = RealClock{}
	}
	if interval <= 0 {
		interval = Interval
	}
	return &Driver{clock: c, interval: interval}
}

// StartAfter makes the next tick carry seq+1. Call it before Run when the
// consumer has already applied ticks from an earlier driver.
func (d *Driver) StartAfter(seq uint64) {
	d.seq = seq
}

// Run calls fn once per tick on the calling goroutine, so fn never overlaps
// with itself. Ticks that arrive while fn is still running are coalesced by the
// underlying ticker. Run returns ctx.Err() once the context is done; no tick
// starts after that.
func (d *Driver) Run(ctx context.Context, fn func(Tick)) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Prefer shutdown when both are ready.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.seq++
			fn(Tick{Seq: d.seq, At: d.clock.Now()})
		}
	}
}
