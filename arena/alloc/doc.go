// Package alloc implements a first-fit allocator over a fixed-size arena whose
// bookkeeping lives in two registries, one for free regions and one for used
// regions.
//
// # Overview
//
// The allocator never touches arena bytes. It only decides which offsets are
// in use, so the arena can live anywhere: process memory, a shared mapping or
// a file. Pointers handed out are RelativePtr values (offsets from the arena
// start) that stay meaningful in every process mapping the arena.
//
// Invariants held after every successful call:
//
//   - free and used regions are non-empty, in bounds and pairwise disjoint
//   - their sizes sum to the arena size
//   - no two free regions are adjacent
//
// # Usage
//
//	free, used := registry.NewOrdered(), registry.NewOrdered()
//	a, err := alloc.New(1<<20, free, used)
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Alloc(256)
//	if err != nil {
//	    return err
//	}
//	// ... write arena[p : p+256] ...
//	err = a.Dealloc(p)
//
// # Registries
//
// Any registry.Registry works. registry.Array keeps records inside a shared
// byte block and visits the newest hole first; registry.Ordered keeps an
// unbounded B-tree and visits holes lowest offset first. Both are
// deterministic, so a given call sequence always yields the same offsets.
//
// With a bounded registry Alloc and Dealloc can fail with ErrCapacityExceeded.
// Such failures leave both registries unchanged.
//
// # Coalescing
//
// Regions are half-open. On Dealloc the allocator probes the byte just before
// the freed region and the byte at its end; any free region found there is
// merged. Neighbours are removed before the merged region is inserted, so
// releasing never needs a spare record while it has a neighbour to absorb.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Synchronized adds a mutex for
// goroutines in one process. Processes sharing a block need their own lock.
//
// # Debugging
//
// Setting ARENA_LOG_ALLOC=1 sends debug-level allocation traces to stderr.
// WithLogger routes them elsewhere.
package alloc
