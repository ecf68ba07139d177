package alloc

import "github.com/joshuapare/arenakit/arena/registry"

// RelativePtr is a byte offset from the start of the arena. It stays valid in
// every process that maps the arena, wherever the mapping lands.
type RelativePtr = uint32

// Region is re-exported so callers need not import the registry package.
type Region = registry.Region

// Usage summarises the current layout of the arena.
type Usage struct {
	ArenaSize     uint32
	FreeBytes     uint64
	UsedBytes     uint64
	FreeRegions   int
	UsedRegions   int
	LargestFree   uint32
	Fragmentation float64 // 1 - LargestFree/FreeBytes, 0 when nothing is free
}

// Stats holds call counters for testing and instrumentation.
type Stats struct {
	AllocCalls    int // Total Alloc() calls
	AllocFailures int // Alloc() calls that returned an error
	ExactFits     int // Allocations that consumed a whole free region
	Splits        int // Allocations that left a free remainder
	FreeCalls     int // Total Dealloc() calls
	InvalidFrees  int // Dealloc() calls rejected with ErrInvalidFree
	CoalesceLeft  int // Merges with the preceding free region
	CoalesceRight int // Merges with the following free region
}

// Op identifies the allocator call recorded in an Event.
type Op uint8

const (
	OpAlloc Op = iota + 1
	OpFree
)

func (o Op) String() string {
	switch o {
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	default:
		return "unknown"
	}
}

// Event is one recorded Alloc or Dealloc call. Size is the requested size for
// OpAlloc and the released region size for OpFree (zero if the free was
// rejected before the region was found).
type Event struct {
	Op   Op
	Ptr  RelativePtr
	Size uint32
	Err  error
}
