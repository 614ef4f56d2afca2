package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridcache/spatial"
)

func TestBus_DispatchOrder(t *testing.T) {
	b := New(1)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, b.Subscribe(KindBlockChanged, func(Event) {
			order = append(order, i)
		}))
	}

	require.NoError(t, b.Publish(BlockChanged(1, 64, 1)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order, "handlers fire in registration order")
}

func TestBus_SynchronousDispatch(t *testing.T) {
	b := New(1)

	seen := false
	require.NoError(t, b.Subscribe(KindChunkUnloaded, func(ev Event) {
		assert.Equal(t, int32(3), ev.ChunkX)
		assert.Equal(t, int32(-7), ev.ChunkZ)
		seen = true
	}))

	require.NoError(t, b.Publish(ChunkUnloaded(3, -7)))
	assert.True(t, seen, "handler must have run before Publish returned")
}

func TestBus_EventConstructors(t *testing.T) {
	ev := BlockChanged(10, 64, -10)
	assert.Equal(t, KindBlockChanged, ev.Kind)
	assert.Equal(t, spatial.PackBlock(10, 64, -10), ev.Block)

	ev = EntityRemoved(42)
	assert.Equal(t, KindEntityRemoved, ev.Kind)
	assert.Equal(t, uint32(42), ev.Entity)

	ev = WorldBorderChanged()
	assert.Equal(t, KindWorldBorderChanged, ev.Kind)
}

func TestBus_RecursiveInvalidation(t *testing.T) {
	b := New(1)

	var nestedErr error
	require.NoError(t, b.Subscribe(KindBlockChanged, func(ev Event) {
		nestedErr = b.Publish(ev)
	}))

	err := b.Publish(BlockChanged(0, 0, 0))

	var recursive *ErrRecursiveInvalidation
	require.ErrorAs(t, nestedErr, &recursive, "nested publish fails in place")
	assert.Equal(t, KindBlockChanged, recursive.Kind)

	require.ErrorAs(t, err, &recursive, "breach surfaces to the top-level publisher")
}

func TestBus_RecursionSurfacesEvenWhenHandlerSwallows(t *testing.T) {
	b := New(1)

	require.NoError(t, b.Subscribe(KindEntityRemoved, func(ev Event) {
		_ = b.Publish(ev) // handler ignores the error
	}))

	err := b.Publish(EntityRemoved(1))
	var recursive *ErrRecursiveInvalidation
	require.ErrorAs(t, err, &recursive)
}

func TestBus_ConfiguredDepthAllowsOneCascade(t *testing.T) {
	b := New(2)

	depth := 0
	require.NoError(t, b.Subscribe(KindBlockChanged, func(ev Event) {
		depth++
		if depth == 1 {
			assert.NoError(t, b.Publish(ev))
		}
	}))

	require.NoError(t, b.Publish(BlockChanged(0, 0, 0)))
	assert.Equal(t, 2, depth)
}

func TestBus_CrossKindPublishIsNotRecursive(t *testing.T) {
	b := New(1)

	require.NoError(t, b.Subscribe(KindChunkUnloaded, func(ev Event) {
		// Unloading a chunk cascades an entity removal; different kind,
		// allowed at depth 1.
		assert.NoError(t, b.Publish(EntityRemoved(9)))
	}))

	require.NoError(t, b.Publish(ChunkUnloaded(0, 0)))
}

func TestBus_UnknownKind(t *testing.T) {
	b := New(1)

	err := b.Subscribe(KindUnknown, func(Event) {})
	var unknown *ErrUnknownEventKind
	assert.ErrorAs(t, err, &unknown)

	err = b.Publish(Event{Kind: Kind(200)})
	assert.ErrorAs(t, err, &unknown)
}

func TestBus_Subscribers(t *testing.T) {
	b := New(1)

	assert.Equal(t, 0, b.Subscribers(KindBlockChanged))
	require.NoError(t, b.Subscribe(KindBlockChanged, func(Event) {}))
	require.NoError(t, b.Subscribe(KindBlockChanged, func(Event) {}))
	assert.Equal(t, 2, b.Subscribers(KindBlockChanged))
}
