// Package bus dispatches world-mutation events to the caches that care.
//
// Publication is synchronous: every subscribed handler has run before
// Publish returns, so an invalidation is visible to the very next read in
// the same tick. The bus itself is stateless apart from the subscriber
// list, which is append-only at startup and effectively immutable during
// steady-state operation.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/gridcache/spatial"
)

// Kind identifies a class of world mutation.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBlockChanged
	KindChunkLoaded
	KindChunkUnloaded
	KindEntityRemoved
	KindWorldBorderChanged

	numKinds
)

// String returns the kind name for logs and errors.
func (k Kind) String() string {
	switch k {
	case KindBlockChanged:
		return "block_changed"
	case KindChunkLoaded:
		return "chunk_loaded"
	case KindChunkUnloaded:
		return "chunk_unloaded"
	case KindEntityRemoved:
		return "entity_removed"
	case KindWorldBorderChanged:
		return "world_border_changed"
	default:
		return "unknown"
	}
}

// Event is one immutable world mutation. Only the fields relevant to its
// Kind are meaningful; use the constructors rather than filling it by hand.
type Event struct {
	Kind Kind

	// Block is the packed block key for KindBlockChanged.
	Block spatial.Key

	// ChunkX, ChunkZ identify the column for chunk events.
	ChunkX, ChunkZ int32

	// Entity is the handle for KindEntityRemoved.
	Entity uint32
}

// BlockChanged describes a single block mutation at (x, y, z).
func BlockChanged(x, y, z int32) Event {
	return Event{Kind: KindBlockChanged, Block: spatial.PackBlock(x, y, z)}
}

// ChunkLoaded describes a chunk column entering the world.
func ChunkLoaded(cx, cz int32) Event {
	return Event{Kind: KindChunkLoaded, ChunkX: cx, ChunkZ: cz}
}

// ChunkUnloaded describes a chunk column leaving the world.
func ChunkUnloaded(cx, cz int32) Event {
	return Event{Kind: KindChunkUnloaded, ChunkX: cx, ChunkZ: cz}
}

// EntityRemoved describes an entity despawn.
func EntityRemoved(handle uint32) Event {
	return Event{Kind: KindEntityRemoved, Entity: handle}
}

// WorldBorderChanged describes a world-border move, which invalidates any
// cached spatial reasoning wholesale.
func WorldBorderChanged() Event {
	return Event{Kind: KindWorldBorderChanged}
}

// Handler consumes a published event. Handlers run on the publisher's
// goroutine and must be short; they may not re-publish the same kind
// beyond the bus's configured depth.
type Handler func(Event)

// ErrRecursiveInvalidation reports a handler re-publishing its own event
// kind past the allowed depth. This indicates a wiring bug in the
// integrating engine, not a transient condition to retry.
type ErrRecursiveInvalidation struct {
	Kind  Kind
	Depth int32
}

func (e *ErrRecursiveInvalidation) Error() string {
	return fmt.Sprintf("recursive invalidation: kind %s re-published at depth %d", e.Kind, e.Depth)
}

// ErrUnknownEventKind reports a subscribe or publish with a kind outside
// the declared set.
type ErrUnknownEventKind struct {
	Kind Kind
}

func (e *ErrUnknownEventKind) Error() string {
	return fmt.Sprintf("unknown event kind: %d", uint8(e.Kind))
}

// Bus is a synchronous multicast dispatcher for invalidation events.
type Bus struct {
	mu       sync.RWMutex
	handlers [numKinds][]Handler

	depth    [numKinds]atomic.Int32
	maxDepth int32

	// violations records a depth breach detected inside a nested publish so
	// the top-level Publish reports it even when the offending handler
	// discarded the nested error.
	vmu        sync.Mutex
	violations [numKinds]*ErrRecursiveInvalidation
}

// New creates a Bus. maxDepth is the number of nested Publish calls
// allowed per event kind; values below 1 are raised to 1 (a top-level
// publish is depth 1).
func New(maxDepth int) *Bus {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &Bus{maxDepth: int32(maxDepth)}
}

// Subscribe registers a handler for one event kind. Handlers fire in
// registration order, which keeps dispatch deterministic for tests.
func (b *Bus) Subscribe(kind Kind, h Handler) error {
	if kind == KindUnknown || kind >= numKinds {
		return &ErrUnknownEventKind{Kind: kind}
	}
	if h == nil {
		return nil
	}

	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], h)
	b.mu.Unlock()
	return nil
}

// Publish synchronously invokes every handler registered for the event's
// kind, in registration order, before returning. A handler re-publishing
// the same kind past the configured depth fails with
// *ErrRecursiveInvalidation; the partial dispatch up to that point is not
// rolled back (handlers are idempotent invalidations by contract).
func (b *Bus) Publish(ev Event) error {
	kind := ev.Kind
	if kind == KindUnknown || kind >= numKinds {
		return &ErrUnknownEventKind{Kind: kind}
	}

	d := b.depth[kind].Add(1)
	defer b.depth[kind].Add(-1)
	if d > b.maxDepth {
		err := &ErrRecursiveInvalidation{Kind: kind, Depth: d}
		b.vmu.Lock()
		if b.violations[kind] == nil {
			b.violations[kind] = err
		}
		b.vmu.Unlock()
		return err
	}

	b.mu.RLock()
	handlers := b.handlers[kind]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}

	if d == 1 {
		b.vmu.Lock()
		err := b.violations[kind]
		b.violations[kind] = nil
		b.vmu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Subscribers returns the number of handlers registered for a kind, for
// diagnostics.
func (b *Bus) Subscribers(kind Kind) int {
	if kind >= numKinds {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}
