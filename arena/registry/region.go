package registry

import "fmt"

// Region is the half-open byte range [Offset, Offset+Size) within an arena.
type Region struct {
	Offset uint32
	Size   uint32
}

// End returns the first byte past the region. It is computed in 64 bits so a
// region ending exactly at 2^32 does not wrap.
func (r Region) End() uint64 {
	return uint64(r.Offset) + uint64(r.Size)
}

// last returns the final byte covered by a non-empty region.
func (r Region) last() uint32 {
	return r.Offset + r.Size - 1
}

// Contains reports whether byte p lies inside the region.
func (r Region) Contains(p uint32) bool {
	return p >= r.Offset && uint64(p) < r.End()
}

// Overlaps reports whether the two regions share at least one byte.
func (r Region) Overlaps(o Region) bool {
	if r.Size == 0 || o.Size == 0 {
		return false
	}
	return uint64(r.Offset) < o.End() && uint64(o.Offset) < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("{0x%X, %d}", r.Offset, r.Size)
}
