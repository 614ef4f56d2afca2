// Package registry tracks every live cache and index so bulk world events
// (world unload, border changes) and diagnostics can reach all of them
// through one surface.
//
// The registry holds handles only for lifecycle and diagnostics; it never
// mutates cache contents beyond the uniform Clear/InvalidateRegion
// operations, and it never sits on a read hot path.
package registry

import (
	"slices"
	"sync"

	"github.com/hupe1980/gridcache/spatial"
)

// Stats is a point-in-time snapshot of one cache, for diagnostics and
// logging. It never affects behavior.
type Stats struct {
	Name     string `json:"name"`
	Len      int    `json:"len"`
	Capacity int    `json:"capacity"`
	Hits     int64  `json:"hits"`
	Misses   int64  `json:"misses"`
}

// Handle is the uniform surface every registered cache or index exposes.
type Handle interface {
	// Name identifies the owning subsystem, unique per registry by
	// convention.
	Name() string

	// Stats returns a snapshot of the handle's counters.
	Stats() Stats

	// Clear drops all entries.
	Clear()

	// InvalidateRegion drops entries whose keys fall inside the region.
	InvalidateRegion(r spatial.Region)
}

// Registry owns the set of live handles. One Registry per world (or per
// test); the whole set dies with it.
type Registry struct {
	mu      sync.RWMutex
	handles []Handle
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Register adds a handle. Called once per subsystem at startup; duplicate
// registration of the same handle is a no-op.
func (r *Registry) Register(h Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.handles, h) {
		return
	}
	r.handles = append(r.handles, h)
}

// Deregister removes a handle. No-op if absent.
func (r *Registry) Deregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, got := range r.handles {
		if got == h {
			r.handles = append(r.handles[:i], r.handles[i+1:]...)
			return
		}
	}
}

// ClearAll clears every registered handle, in registration order. Used on
// world unload.
func (r *Registry) ClearAll() {
	for _, h := range r.snapshot() {
		h.Clear()
	}
}

// InvalidateRegion forwards a region invalidation to every handle.
func (r *Registry) InvalidateRegion(region spatial.Region) {
	for _, h := range r.snapshot() {
		h.InvalidateRegion(region)
	}
}

// Stats returns a snapshot per registered handle, in registration order.
func (r *Registry) Stats() []Stats {
	handles := r.snapshot()
	stats := make([]Stats, 0, len(handles))
	for _, h := range handles {
		stats = append(stats, h.Stats())
	}
	return stats
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

func (r *Registry) snapshot() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.handles)
}
