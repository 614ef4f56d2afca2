package staleness

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTTL(t *testing.T) {
	p := TTL(20)

	assert.False(t, p.IsStale(100, 0, 100), "fresh entry")
	assert.False(t, p.IsStale(100, 0, 120), "exactly at TTL")
	assert.True(t, p.IsStale(100, 0, 121), "one past TTL")
}

func TestVersionGated(t *testing.T) {
	var current atomic.Uint64
	p := VersionGated(&current)

	assert.False(t, p.IsStale(0, 0, 999), "matching version, time irrelevant")

	current.Add(1)
	assert.True(t, p.IsStale(0, 0, 0), "entry written under old version")
	assert.False(t, p.IsStale(0, 1, 0), "entry written under new version")
}

func TestNever(t *testing.T) {
	p := Never()

	assert.False(t, p.IsStale(0, 0, 1<<62))
	assert.False(t, p.IsStale(5, 99, 0))
}
