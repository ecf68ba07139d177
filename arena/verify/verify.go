package verify

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/joshuapare/arenakit/arena/registry"
)

// ValidationError describes a single failed invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int64
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// AllInvariants runs Tiling and Coalesced.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(size uint32, free, used []registry.Region) error {
	if err := Tiling(size, free, used); err != nil {
		return err
	}
	return Coalesced(free)
}

// Registries collects both registries and runs AllInvariants.
func Registries(size uint32, free, used registry.Registry) error {
	return AllInvariants(size, registry.Collect(free), registry.Collect(used))
}

// Tiling checks that free and used together cover [0, size) exactly once.
func Tiling(size uint32, free, used []registry.Region) error {
	if err := Disjoint(size, free, used); err != nil {
		return err
	}
	return Conservation(size, free, used)
}

// Disjoint checks that every region is non-empty, in bounds and shares no
// byte with any other region in either list.
func Disjoint(size uint32, free, used []registry.Region) error {
	covered := roaring.New()
	check := func(kind string, regions []registry.Region) error {
		for _, r := range regions {
			if r.Size == 0 {
				return &ValidationError{
					Type:    "Disjoint",
					Message: fmt.Sprintf("empty %s region", kind),
					Offset:  int64(r.Offset),
				}
			}
			if r.End() > uint64(size) {
				return &ValidationError{
					Type:    "Disjoint",
					Message: fmt.Sprintf("%s region %s ends past arena size %d", kind, r, size),
					Offset:  int64(r.Offset),
					Details: map[string]any{"end": r.End(), "size": size},
				}
			}
			before := covered.GetCardinality()
			covered.AddRange(uint64(r.Offset), r.End())
			if added := covered.GetCardinality() - before; added != uint64(r.Size) {
				return &ValidationError{
					Type:    "Disjoint",
					Message: fmt.Sprintf("%s region %s overlaps another region", kind, r),
					Offset:  int64(r.Offset),
					Details: map[string]any{"overlap": uint64(r.Size) - added},
				}
			}
		}
		return nil
	}
	if err := check("free", free); err != nil {
		return err
	}
	return check("used", used)
}

// Conservation checks that the region sizes sum to the arena size.
func Conservation(size uint32, free, used []registry.Region) error {
	freeBytes := sum(free)
	usedBytes := sum(used)
	if freeBytes+usedBytes != uint64(size) {
		return &ValidationError{
			Type:    "Conservation",
			Message: fmt.Sprintf("free %d + used %d != arena size %d", freeBytes, usedBytes, size),
			Offset:  -1,
			Details: map[string]any{"free": freeBytes, "used": usedBytes, "size": size},
		}
	}
	return nil
}

// Coalesced checks that no two free regions are adjacent. free must be
// sorted by offset, as returned by registry.Collect.
func Coalesced(free []registry.Region) error {
	for i := 1; i < len(free); i++ {
		prev, cur := free[i-1], free[i]
		if prev.End() == uint64(cur.Offset) {
			return &ValidationError{
				Type:    "Coalesced",
				Message: fmt.Sprintf("free regions %s and %s are adjacent", prev, cur),
				Offset:  int64(cur.Offset),
			}
		}
	}
	return nil
}

func sum(regions []registry.Region) uint64 {
	var total uint64
	for _, r := range regions {
		total += uint64(r.Size)
	}
	return total
}
