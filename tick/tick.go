// Package tick defines the simulation-time vocabulary shared by every cache.
//
// The integrating engine owns the authoritative loop; gridcache only reads
// the tick counter, it never advances it.
package tick

import "sync/atomic"

// Tick is one discrete step of the host engine's authoritative loop.
type Tick = uint64

// Clock exposes the current tick. Now must be monotonically non-decreasing;
// it is read on every cache lookup and must be cheap.
type Clock interface {
	Now() Tick
}

// Counter is the default Clock: a process-local atomic counter the host
// engine advances once per simulation step.
type Counter struct {
	t atomic.Uint64
}

// NewCounter creates a Counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Now returns the current tick.
func (c *Counter) Now() Tick {
	return c.t.Load()
}

// Advance increments the tick by one and returns the new value.
func (c *Counter) Advance() Tick {
	return c.t.Add(1)
}

// Set overwrites the counter, for attaching to an engine that already has
// its own tick number (e.g. on world load).
func (c *Counter) Set(t Tick) {
	c.t.Store(t)
}

// Fixed is a Clock frozen at a constant tick. Useful in tests and for
// caches whose policy ignores time entirely.
type Fixed Tick

// Now returns the fixed tick.
func (f Fixed) Now() Tick {
	return Tick(f)
}
