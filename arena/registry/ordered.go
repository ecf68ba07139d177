package registry

import (
	"github.com/cockroachdb/errors"
	"github.com/google/btree"
)

// defaultDegree is the B-tree degree used when none is configured.
const defaultDegree = 16

// Ordered is an unbounded registry on the Go heap backed by a B-tree.
//
// Regions are ordered by their last byte. For disjoint regions that is the
// same order as by offset, and it lets a bare offset p be used as a probe:
// the first region whose last byte is >= p is the only one that can contain p.
type Ordered struct {
	tree   *btree.BTreeG[Region]
	degree int
}

// OrderedOption configures an Ordered registry.
type OrderedOption func(*Ordered)

// WithDegree sets the B-tree degree. Values below 2 are ignored.
func WithDegree(degree int) OrderedOption {
	return func(o *Ordered) {
		if degree >= 2 {
			o.degree = degree
		}
	}
}

// lessByLast orders regions by their final byte.
func lessByLast(a, b Region) bool {
	return a.last() < b.last()
}

// probe returns a one-byte region at p, usable as a search key.
func probe(p uint32) Region {
	return Region{Offset: p, Size: 1}
}

// NewOrdered creates an empty ordered registry.
func NewOrdered(opts ...OrderedOption) *Ordered {
	o := &Ordered{degree: defaultDegree}
	for _, opt := range opts {
		opt(o)
	}
	o.tree = btree.NewG(o.degree, lessByLast)
	return o
}

// Insert adds r. Unlike Array, Ordered rejects an overlapping region because
// the tree would otherwise silently replace an entry sharing r's last byte.
func (o *Ordered) Insert(r Region) error {
	if r.Size == 0 {
		return ErrEmptyRegion
	}
	if r.End() > 1<<32 {
		return errors.Wrapf(ErrOverlap, "region %s wraps the 32-bit offset space", r)
	}
	if hit, ok := o.firstEndingAtOrAfter(r.Offset); ok && hit.Overlaps(r) {
		return errors.Wrapf(ErrOverlap, "region %s overlaps %s", r, hit)
	}
	o.tree.ReplaceOrInsert(r)
	return nil
}

// RemoveExact removes r when a region with the same offset and size is stored.
func (o *Ordered) RemoveExact(r Region) bool {
	if r.Size == 0 {
		return false
	}
	got, ok := o.tree.Get(r)
	if !ok || got != r {
		return false
	}
	o.tree.Delete(r)
	return true
}

// FindContaining returns the region covering byte p in O(log n).
func (o *Ordered) FindContaining(p uint32) (Region, bool) {
	hit, ok := o.firstEndingAtOrAfter(p)
	if !ok || !hit.Contains(p) {
		return Region{}, false
	}
	return hit, true
}

// FindOffset returns the region starting at p.
func (o *Ordered) FindOffset(p uint32) (Region, bool) {
	hit, ok := o.FindContaining(p)
	if !ok || hit.Offset != p {
		return Region{}, false
	}
	return hit, true
}

// firstEndingAtOrAfter returns the lowest region whose last byte is >= p.
func (o *Ordered) firstEndingAtOrAfter(p uint32) (Region, bool) {
	var (
		hit   Region
		found bool
	)
	o.tree.AscendGreaterOrEqual(probe(p), func(r Region) bool {
		hit, found = r, true
		return false
	})
	return hit, found
}

// Scan visits regions in ascending offset order.
func (o *Ordered) Scan(fn func(Region) bool) {
	o.tree.Ascend(btree.ItemIteratorG[Region](fn))
}

// Len returns the number of stored regions.
func (o *Ordered) Len() int {
	return o.tree.Len()
}

// Cap returns -1; the tree grows on demand.
func (o *Ordered) Cap() int {
	return -1
}

// Reset removes every region.
func (o *Ordered) Reset() {
	o.tree.Clear(false)
}
