// Package clock supplies the monotonic tick counter every expiry comparison
// reads from. Ticks are advanced by the embedding application (a block
// height, an epoch counter), never by timers: expiry is evaluated lazily at
// check time, so authorization stays deterministic and side-effect free.
package clock

import "sync/atomic"

// Clock yields the current tick. Implementations must be monotonically
// non-decreasing.
type Clock interface {
	Now() uint64
}

// Counter is the default Clock: an atomic tick counter advanced externally.
type Counter struct {
	tick atomic.Uint64
}

// NewCounter returns a Counter starting at the given tick.
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.tick.Store(start)
	return c
}

// Now returns the current tick.
func (c *Counter) Now() uint64 {
	return c.tick.Load()
}

// Advance moves the clock forward by delta ticks and returns the new tick.
func (c *Counter) Advance(delta uint64) uint64 {
	return c.tick.Add(delta)
}

// AdvanceTo moves the clock to the given tick. Attempts to move backwards
// are ignored so the counter stays monotonic; the resulting tick is returned.
func (c *Counter) AdvanceTo(tick uint64) uint64 {
	for {
		current := c.tick.Load()
		if tick <= current {
			return current
		}
		if c.tick.CompareAndSwap(current, tick) {
			return tick
		}
	}
}
