package alloc

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena/registry"
	"github.com/joshuapare/arenakit/arena/ring"
	"github.com/joshuapare/arenakit/arena/verify"
)

// Allocator hands out byte ranges of a fixed-size arena. Allocation is
// first-fit over the free registry in its iteration order; release merges the
// freed range with free neighbours on both sides.
//
// An Allocator is not safe for concurrent use. Wrap it in Synchronized or
// serialise callers externally.
type Allocator struct {
	size uint32
	free registry.Registry
	used registry.Registry

	stats   Stats
	history *ring.Ring[Event] // nil unless WithHistory
	log     *slog.Logger
	trace   bool // debug logging enabled
}

// New takes ownership of free and used, clears them and seeds free with a
// single region spanning the whole arena.
func New(size uint32, free, used registry.Registry, opts ...Option) (*Allocator, error) {
	if size == 0 {
		return nil, ErrZeroArena
	}
	a := newAllocator(size, free, used, opts)
	free.Reset()
	used.Reset()
	if err := free.Insert(Region{Offset: 0, Size: size}); err != nil {
		return nil, errors.Wrap(err, "alloc: seed free registry")
	}
	if a.trace {
		a.log.Debug("arena initialised", "size", size, "freeCap", free.Cap(), "usedCap", used.Cap())
	}
	return a, nil
}

// Attach adopts registries that already describe the arena, such as a block
// written by another process. The registries must tile [0, size) exactly;
// otherwise the returned error matches ErrCorrupt and carries the
// *verify.ValidationError describing the first violation.
func Attach(size uint32, free, used registry.Registry, opts ...Option) (*Allocator, error) {
	if size == 0 {
		return nil, ErrZeroArena
	}
	if err := verify.Tiling(size, registry.Collect(free), registry.Collect(used)); err != nil {
		return nil, errors.Join(ErrCorrupt, errors.Wrap(err, "attach"))
	}
	a := newAllocator(size, free, used, opts)
	if a.trace {
		a.log.Debug("arena attached", "size", size, "free", free.Len(), "used", used.Len())
	}
	return a, nil
}

func newAllocator(size uint32, free, used registry.Registry, opts []Option) *Allocator {
	a := &Allocator{size: size, free: free, used: used, log: defaultLogger()}
	for _, opt := range opts {
		opt(a)
	}
	a.trace = a.log.Enabled(context.Background(), slog.LevelDebug)
	return a
}

// Alloc reserves n bytes and returns their offset in the arena.
//
// The first free region of at least n bytes is used. An exact fit consumes
// the region; otherwise its tail stays free. On any error the registries are
// left as they were.
func (a *Allocator) Alloc(n uint32) (RelativePtr, error) {
	p, err := a.alloc(n)
	a.record(Event{Op: OpAlloc, Ptr: p, Size: n, Err: err})
	return p, err
}

func (a *Allocator) alloc(n uint32) (RelativePtr, error) {
	a.stats.AllocCalls++
	if n == 0 {
		a.stats.AllocFailures++
		return 0, ErrZeroSize
	}

	hole, ok := a.firstFit(n)
	if !ok {
		a.stats.AllocFailures++
		if a.trace {
			a.log.Debug("alloc failed", "need", n, "largestFree", a.largestFree(), "freeRegions", a.free.Len())
		}
		return 0, errors.Wrapf(ErrOutOfMemory, "alloc %d bytes", n)
	}
	if err := a.carve(hole, n); err != nil {
		a.stats.AllocFailures++
		return 0, err
	}
	if a.trace {
		a.log.Debug("alloc", "ptr", hole.Offset, "size", n, "from", hole.String())
	}
	return hole.Offset, nil
}

func (a *Allocator) firstFit(n uint32) (Region, bool) {
	var hole Region
	found := false
	a.free.Scan(func(r Region) bool {
		if r.Size >= n {
			hole, found = r, true
			return false
		}
		return true
	})
	return hole, found
}

// carve moves the first n bytes of hole from free to used. The hole is removed
// before its remainder is inserted, so a full free registry can still split.
func (a *Allocator) carve(hole Region, n uint32) error {
	taken := Region{Offset: hole.Offset, Size: n}
	if err := a.used.Insert(taken); err != nil {
		return errors.Wrapf(err, "alloc %d bytes at 0x%X", n, hole.Offset)
	}
	if !a.free.RemoveExact(hole) {
		a.used.RemoveExact(taken)
		return errors.Wrapf(ErrCorrupt, "free region %s disappeared during alloc", hole)
	}

	rest := hole.Size - n
	if rest == 0 {
		a.stats.ExactFits++
		return nil
	}
	tail := Region{Offset: hole.Offset + n, Size: rest}
	if err := a.free.Insert(tail); err != nil {
		// Put the hole back; its slot was released a moment ago.
		_ = a.free.Insert(hole)
		a.used.RemoveExact(taken)
		return errors.Wrapf(err, "alloc %d bytes: keep remainder %s", n, tail)
	}
	a.stats.Splits++
	return nil
}

// Dealloc releases the used region starting at p and merges it with adjacent
// free regions. A pointer that does not start a used region, including one
// pointing into the middle of an allocation or one already freed, returns
// ErrInvalidFree and changes nothing.
func (a *Allocator) Dealloc(p RelativePtr) error {
	size, err := a.dealloc(p)
	a.record(Event{Op: OpFree, Ptr: p, Size: size, Err: err})
	return err
}

func (a *Allocator) dealloc(p RelativePtr) (uint32, error) {
	a.stats.FreeCalls++
	r, ok := a.used.FindOffset(p)
	if !ok {
		a.stats.InvalidFrees++
		if a.trace {
			a.log.Debug("invalid free", "ptr", p)
		}
		return 0, errors.Wrapf(ErrInvalidFree, "free 0x%X", p)
	}

	left, hasLeft, err := a.leftNeighbour(r)
	if err != nil {
		return r.Size, err
	}
	right, hasRight, err := a.rightNeighbour(r)
	if err != nil {
		return r.Size, err
	}
	// Without a neighbour to absorb it the region needs a slot of its own.
	if !hasLeft && !hasRight && full(a.free) {
		return r.Size, errors.Wrapf(ErrCapacityExceeded, "free 0x%X", p)
	}

	a.used.RemoveExact(r)
	merged := r
	if hasLeft {
		a.free.RemoveExact(left)
		merged = Region{Offset: left.Offset, Size: left.Size + merged.Size}
		a.stats.CoalesceLeft++
	}
	if hasRight {
		a.free.RemoveExact(right)
		merged.Size += right.Size
		a.stats.CoalesceRight++
	}
	if err := a.free.Insert(merged); err != nil {
		a.restoreFree(left, hasLeft, right, hasRight)
		_ = a.used.Insert(r)
		return r.Size, errors.Wrapf(err, "free 0x%X", p)
	}

	if a.trace {
		a.log.Debug("free", "ptr", p, "size", r.Size, "merged", merged.String())
	}
	return r.Size, nil
}

// leftNeighbour returns the free region ending exactly at r.Offset.
func (a *Allocator) leftNeighbour(r Region) (Region, bool, error) {
	if r.Offset == 0 {
		return Region{}, false, nil
	}
	left, ok := a.free.FindContaining(r.Offset - 1)
	if !ok {
		return Region{}, false, nil
	}
	if left.End() != uint64(r.Offset) {
		return Region{}, false, errors.Wrapf(ErrCorrupt, "free region %s overlaps used region %s", left, r)
	}
	return left, true, nil
}

// rightNeighbour returns the free region starting exactly at r.End().
func (a *Allocator) rightNeighbour(r Region) (Region, bool, error) {
	end := r.End()
	if end >= uint64(a.size) {
		return Region{}, false, nil
	}
	right, ok := a.free.FindContaining(uint32(end))
	if !ok {
		return Region{}, false, nil
	}
	if uint64(right.Offset) != end {
		return Region{}, false, errors.Wrapf(ErrCorrupt, "free region %s overlaps used region %s", right, r)
	}
	return right, true, nil
}

func (a *Allocator) restoreFree(left Region, hasLeft bool, right Region, hasRight bool) {
	if hasLeft {
		_ = a.free.Insert(left)
	}
	if hasRight {
		_ = a.free.Insert(right)
	}
}

func full(r registry.Registry) bool {
	c := r.Cap()
	return c >= 0 && r.Len() >= c
}

// Size returns the arena size in bytes.
func (a *Allocator) Size() uint32 { return a.size }

// FreeRegions returns the free regions sorted by offset.
func (a *Allocator) FreeRegions() []Region { return registry.Collect(a.free) }

// UsedRegions returns the used regions sorted by offset.
func (a *Allocator) UsedRegions() []Region { return registry.Collect(a.used) }

// Lookup returns the used region starting at p.
func (a *Allocator) Lookup(p RelativePtr) (Region, bool) {
	return a.used.FindOffset(p)
}

// Usage reports byte and region totals for both registries.
func (a *Allocator) Usage() Usage {
	u := Usage{
		ArenaSize:   a.size,
		FreeBytes:   registry.TotalSize(a.free),
		UsedBytes:   registry.TotalSize(a.used),
		FreeRegions: a.free.Len(),
		UsedRegions: a.used.Len(),
		LargestFree: a.largestFree(),
	}
	if u.FreeBytes > 0 {
		u.Fragmentation = 1 - float64(u.LargestFree)/float64(u.FreeBytes)
	}
	return u
}

// Stats returns a copy of the call counters.
func (a *Allocator) Stats() Stats { return a.stats }

// Check runs every bookkeeping invariant and returns the first violation.
func (a *Allocator) Check() error {
	return verify.Registries(a.size, a.free, a.used)
}

// History returns the recorded operations, oldest first. It is empty unless
// the allocator was built with WithHistory.
func (a *Allocator) History() []Event {
	if a.history == nil {
		return nil
	}
	out := make([]Event, a.history.Len())
	_ = a.history.Peek(out)
	return out
}

func (a *Allocator) record(ev Event) {
	if a.history == nil {
		return
	}
	if a.history.Free() == 0 {
		a.history.Discard(1)
	}
	_ = a.history.Push(ev)
}

func (a *Allocator) largestFree() uint32 {
	var largest uint32
	a.free.Scan(func(r Region) bool {
		if r.Size > largest {
			largest = r.Size
		}
		return true
	})
	return largest
}
