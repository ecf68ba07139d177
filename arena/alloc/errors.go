package alloc

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena/registry"
)

var (
	// ErrOutOfMemory indicates that no free region is large enough.
	ErrOutOfMemory = errors.New("alloc: no free region large enough")

	// ErrInvalidFree indicates a pointer that does not start a used region.
	ErrInvalidFree = errors.New("alloc: pointer is not the start of a used region")

	// ErrCapacityExceeded indicates a bounded registry ran out of record slots.
	ErrCapacityExceeded = registry.ErrCapacityExceeded

	// ErrZeroSize indicates a request for zero bytes.
	ErrZeroSize = errors.New("alloc: zero-size request")

	// ErrZeroArena indicates an arena of zero bytes.
	ErrZeroArena = errors.New("alloc: zero-size arena")

	// ErrCorrupt indicates registries that do not tile the arena.
	ErrCorrupt = errors.New("alloc: corrupt bookkeeping")
)
