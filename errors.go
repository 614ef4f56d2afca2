package gridcache

import (
	"errors"

	"github.com/hupe1980/gridcache/bus"
)

// IsRecursiveInvalidation reports whether err is a recursion-guard breach
// from the invalidation bus. Integrators should treat it as a wiring bug
// in subsystem event handling, not a transient condition to retry.
func IsRecursiveInvalidation(err error) bool {
	var target *bus.ErrRecursiveInvalidation
	return errors.As(err, &target)
}

// IsUnknownEventKind reports whether err came from subscribing or
// publishing with an event kind outside the declared set.
func IsUnknownEventKind(err error) bool {
	var target *bus.ErrUnknownEventKind
	return errors.As(err, &target)
}
