// Package resource bounds what the cache substrate may consume process-wide.
//
// Individual caches bound themselves per-instance; the Controller adds a
// global entry budget across all of them, so adversarial cache-key churn
// (a player exploring infinite terrain) cannot grow the working set without
// limit no matter how many subsystems cache against it.
package resource

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrEntryBudgetExceeded is returned when the global entry budget would be
// exceeded.
var ErrEntryBudgetExceeded = errors.New("cache entry budget exceeded")

// Config holds process-wide limits.
type Config struct {
	// MaxEntries is the hard limit on cached entries across all caches.
	// If 0, no hard limit is enforced (only tracking).
	MaxEntries int64

	// LogEventsPerSec throttles diagnostic logging of capacity clears and
	// budget denials. If 0, defaults to 1 event per second.
	LogEventsPerSec float64
}

// Controller tracks and limits global cache resources.
//
// A nil *Controller is valid and enforces nothing, so callers never need a
// nil check on the hot path.
type Controller struct {
	entrySem  *semaphore.Weighted // nil if unlimited
	entryUsed atomic.Int64

	logLimiter *rate.Limiter
}

// NewController creates a Controller from a Config.
func NewController(cfg Config) *Controller {
	if cfg.LogEventsPerSec <= 0 {
		cfg.LogEventsPerSec = 1
	}

	c := &Controller{
		logLimiter: rate.NewLimiter(rate.Limit(cfg.LogEventsPerSec), 1),
	}

	if cfg.MaxEntries > 0 {
		c.entrySem = semaphore.NewWeighted(cfg.MaxEntries)
	}

	return c
}

// TryAcquireEntries reserves budget for n entries without blocking.
// Returns false if the budget would be exceeded; the caller should skip
// caching rather than wait.
func (c *Controller) TryAcquireEntries(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}

	if c.entrySem != nil && !c.entrySem.TryAcquire(n) {
		return false
	}

	c.entryUsed.Add(n)
	return true
}

// AcquireEntries reserves budget for n entries, returning
// ErrEntryBudgetExceeded on denial. Non-blocking; callers control any
// retry policy.
func (c *Controller) AcquireEntries(n int64) error {
	if !c.TryAcquireEntries(n) {
		return ErrEntryBudgetExceeded
	}
	return nil
}

// ReleaseEntries returns budget for n entries.
func (c *Controller) ReleaseEntries(n int64) {
	if c == nil || n <= 0 {
		return
	}

	if c.entrySem != nil {
		c.entrySem.Release(n)
	}

	c.entryUsed.Add(-n)
}

// EntriesUsed returns the entries currently reserved.
func (c *Controller) EntriesUsed() int64 {
	if c == nil {
		return 0
	}
	return c.entryUsed.Load()
}

// AllowLog reports whether a throttled diagnostic log line may be emitted
// now. Bulk clears happen in bursts; logging each one drowns the log.
func (c *Controller) AllowLog() bool {
	if c == nil || c.logLimiter == nil {
		return true
	}
	return c.logLimiter.Allow()
}
