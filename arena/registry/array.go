package registry

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
)

// Array is a bounded registry stored as fixed-size records inside a byte
// block. The record count lives in the block too, so a second process that
// maps the same block sees the same registry.
//
// Array is the self-hosted backend: it never holds a pointer into the block
// beyond the slice itself and addresses records by index only.
type Array struct {
	block    []byte // bookkeeping block shared by both registries
	countOff int    // offset of the u32 record counter in block
	recOff   int    // offset of record 0 in block
	capacity int    // number of record slots

	dt     DirtyTracker // optional; nil when the block is not file backed
	dtBase int          // absolute file offset of block[0]
}

// ArrayOption configures an Array.
type ArrayOption func(*Array)

// WithDirtyTracker reports every mutated byte range to dt. base is the
// absolute offset of the block within its backing file.
func WithDirtyTracker(dt DirtyTracker, base int) ArrayOption {
	return func(a *Array) {
		a.dt = dt
		a.dtBase = base
	}
}

// NewArray creates an empty registry whose counter sits at countOff and whose
// capacity records start at recordsOff within block.
func NewArray(block []byte, countOff, recordsOff, capacity int, opts ...ArrayOption) (*Array, error) {
	a, err := newArray(block, countOff, recordsOff, capacity, opts)
	if err != nil {
		return nil, err
	}
	a.setCount(0)
	return a, nil
}

// AttachArray adopts a registry previously written to block. The stored
// count must not exceed capacity and every stored record must be non-empty.
func AttachArray(block []byte, countOff, recordsOff, capacity int, opts ...ArrayOption) (*Array, error) {
	a, err := newArray(block, countOff, recordsOff, capacity, opts)
	if err != nil {
		return nil, err
	}
	n := format.ReadU32(a.block, a.countOff)
	if uint64(n) > uint64(a.capacity) {
		return nil, errors.Wrapf(ErrCorrupt, "stored count %d exceeds capacity %d", n, a.capacity)
	}
	for i := range int(n) {
		if r := a.record(i); r.Size == 0 {
			return nil, errors.Wrapf(ErrCorrupt, "record %d has zero size", i)
		}
	}
	return a, nil
}

func newArray(block []byte, countOff, recordsOff, capacity int, opts []ArrayOption) (*Array, error) {
	if !buf.Has(block, countOff, format.CounterSize) {
		return nil, errors.Wrapf(buf.ErrOutOfBounds, "registry counter at %d", countOff)
	}
	end, err := buf.CheckArrayBounds(len(block), recordsOff, capacity, format.RecordSize)
	if err != nil {
		return nil, errors.Wrap(err, "registry records")
	}
	if countOff+format.CounterSize > recordsOff && countOff < end {
		return nil, errors.Newf("registry: counter at %d overlaps records [%d, %d)", countOff, recordsOff, end)
	}
	a := &Array{
		block:    block,
		countOff: countOff,
		recOff:   recordsOff,
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Insert appends r to the next free slot.
func (a *Array) Insert(r Region) error {
	if r.Size == 0 {
		return ErrEmptyRegion
	}
	n := a.Len()
	if n >= a.capacity {
		return errors.Wrapf(ErrCapacityExceeded, "%d of %d records in use", n, a.capacity)
	}
	a.writeRecord(n, r)
	a.setCount(n + 1)
	return nil
}

// RemoveExact removes the record equal to r, filling its slot with the last
// record.
func (a *Array) RemoveExact(r Region) bool {
	n := a.Len()
	for i := range n {
		if a.record(i) == r {
			a.removeAt(i, n)
			return true
		}
	}
	return false
}

// removeAt erases slot i from an array holding n records.
func (a *Array) removeAt(i, n int) {
	last := n - 1
	if i != last {
		a.writeRecord(i, a.record(last))
	}
	a.setCount(last)
}

// FindContaining returns the region covering byte p.
func (a *Array) FindContaining(p uint32) (Region, bool) {
	n := a.Len()
	for i := range n {
		if r := a.record(i); r.Contains(p) {
			return r, true
		}
	}
	return Region{}, false
}

// FindOffset returns the region starting at p.
func (a *Array) FindOffset(p uint32) (Region, bool) {
	n := a.Len()
	for i := range n {
		if r := a.record(i); r.Offset == p {
			return r, true
		}
	}
	return Region{}, false
}

// Scan visits records from the most recently filled slot down to slot 0.
func (a *Array) Scan(fn func(Region) bool) {
	for i := a.Len() - 1; i >= 0; i-- {
		if !fn(a.record(i)) {
			return
		}
	}
}

// Len returns the stored record count.
func (a *Array) Len() int {
	return int(format.ReadU32(a.block, a.countOff))
}

// Cap returns the number of record slots.
func (a *Array) Cap() int {
	return a.capacity
}

// Reset sets the record count to zero. Record bytes are left in place.
func (a *Array) Reset() {
	a.setCount(0)
}

func (a *Array) recordOffset(i int) int {
	return a.recOff + i*format.RecordSize
}

func (a *Array) record(i int) Region {
	off := a.recordOffset(i)
	return Region{
		Offset: format.ReadU32(a.block, off+format.RecordOffsetField),
		Size:   format.ReadU32(a.block, off+format.RecordSizeField),
	}
}

func (a *Array) writeRecord(i int, r Region) {
	off := a.recordOffset(i)
	format.PutU32(a.block, off+format.RecordOffsetField, r.Offset)
	format.PutU32(a.block, off+format.RecordSizeField, r.Size)
	a.markDirty(off, format.RecordSize)
}

func (a *Array) setCount(n int) {
	format.PutU32(a.block, a.countOff, uint32(n))
	a.markDirty(a.countOff, format.CounterSize)
}

func (a *Array) markDirty(off, length int) {
	if a.dt != nil {
		a.dt.Add(a.dtBase+off, length)
	}
}
