package arena

import (
	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/registry"
	"github.com/joshuapare/arenakit/internal/format"
)

// Arena is an allocator together with the storage of its registries.
//
// For a block arena the block is the complete allocator state: copying it or
// mapping it into another process and calling Attach yields an identical
// allocator.
type Arena struct {
	*alloc.Allocator

	block    []byte // nil for heap arenas
	capacity int    // records per registry, -1 when unbounded
}

// MetaCapacity returns the number of records each registry gets in a
// bookkeeping block of blockSize bytes.
func MetaCapacity(blockSize int) int {
	return format.BlockCapacity(blockSize)
}

// MetaSizeFor returns the smallest block size that holds records records per
// registry.
func MetaSizeFor(records int) int {
	return format.BlockSizeFor(records)
}

// New carves block into the two registries and seeds an allocator managing
// arenaSize bytes. Capacity follows from the block size alone; see
// MetaCapacity.
func New(block []byte, arenaSize uint32, opts ...Option) (*Arena, error) {
	cfg := buildConfig(opts)
	free, used, capacity, err := carve(block, cfg, registry.NewArray)
	if err != nil {
		return nil, err
	}
	a, err := alloc.New(arenaSize, free, used, cfg.allocOptions()...)
	if err != nil {
		return nil, err
	}
	return &Arena{Allocator: a, block: block, capacity: capacity}, nil
}

// Attach adopts a block previously initialised by New, possibly in another
// process or at another address.
func Attach(block []byte, arenaSize uint32, opts ...Option) (*Arena, error) {
	cfg := buildConfig(opts)
	free, used, capacity, err := carve(block, cfg, registry.AttachArray)
	if err != nil {
		return nil, err
	}
	a, err := alloc.Attach(arenaSize, free, used, cfg.allocOptions()...)
	if err != nil {
		return nil, err
	}
	return &Arena{Allocator: a, block: block, capacity: capacity}, nil
}

// NewHeap returns an arena whose registries are B-trees on the Go heap. It has
// no record limit but cannot be shared between processes.
func NewHeap(arenaSize uint32, opts ...Option) (*Arena, error) {
	cfg := buildConfig(opts)
	free := registry.NewOrdered(cfg.orderedOptions()...)
	used := registry.NewOrdered(cfg.orderedOptions()...)
	a, err := alloc.New(arenaSize, free, used, cfg.allocOptions()...)
	if err != nil {
		return nil, err
	}
	return &Arena{Allocator: a, capacity: -1}, nil
}

type arrayCtor func(block []byte, countOff, recordsOff, capacity int, opts ...registry.ArrayOption) (*registry.Array, error)

func carve(block []byte, cfg config, ctor arrayCtor) (free, used *registry.Array, capacity int, err error) {
	capacity = MetaCapacity(len(block))
	if capacity == 0 {
		return nil, nil, 0, errors.Wrapf(ErrBlockTooSmall, "%d bytes, need at least %d", len(block), MetaSizeFor(1))
	}
	aopts := cfg.arrayOptions()
	free, err = ctor(block, format.FreeCountOffset, format.FreeRecordsOffset(), capacity, aopts...)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "arena: free registry")
	}
	used, err = ctor(block, format.UsedCountOffset, format.UsedRecordsOffset(capacity), capacity, aopts...)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "arena: used registry")
	}
	return free, used, capacity, nil
}

// Capacity returns the number of records each registry can hold, or -1 for a
// heap arena.
func (a *Arena) Capacity() int { return a.capacity }

// Block returns the bookkeeping block, or nil for a heap arena.
func (a *Arena) Block() []byte { return a.block }
