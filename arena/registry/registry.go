package registry

import (
	"slices"

	"github.com/cockroachdb/errors"
)

var (
	// ErrCapacityExceeded indicates a bounded backend has no free record slot.
	ErrCapacityExceeded = errors.New("registry: capacity exceeded")

	// ErrEmptyRegion indicates an attempt to insert a zero-sized region.
	ErrEmptyRegion = errors.New("registry: empty region")

	// ErrOverlap indicates an inserted region overlaps one already stored.
	ErrOverlap = errors.New("registry: overlapping region")

	// ErrCorrupt indicates stored bookkeeping that cannot be adopted.
	ErrCorrupt = errors.New("registry: corrupt bookkeeping")
)

// Registry is a collection of disjoint regions.
//
// Implementations:
//   - Array: bounded records in a caller-supplied block
//   - Ordered: unbounded B-tree on the Go heap
type Registry interface {
	// Insert adds r. The caller guarantees r does not overlap a stored region.
	Insert(r Region) error

	// RemoveExact removes the region equal to r in both fields and reports
	// whether it was present.
	RemoveExact(r Region) bool

	// FindContaining returns the region covering byte p.
	FindContaining(p uint32) (Region, bool)

	// FindOffset returns the region starting exactly at p.
	FindOffset(p uint32) (Region, bool)

	// Scan calls fn for each region in the backend's iteration order until fn
	// returns false. fn must not mutate the registry.
	Scan(fn func(Region) bool)

	// Len returns the number of stored regions.
	Len() int

	// Cap returns the maximum number of regions, or -1 when unbounded.
	Cap() int

	// Reset removes every region.
	Reset()
}

// Collect returns a copy of every region in r sorted by offset.
func Collect(r Registry) []Region {
	out := make([]Region, 0, r.Len())
	r.Scan(func(reg Region) bool {
		out = append(out, reg)
		return true
	})
	slices.SortFunc(out, func(a, b Region) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	})
	return out
}

// TotalSize returns the sum of the sizes of every region in r.
func TotalSize(r Registry) uint64 {
	var total uint64
	r.Scan(func(reg Region) bool {
		total += uint64(reg.Size)
		return true
	})
	return total
}
