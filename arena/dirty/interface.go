package dirty

import "context"

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
//
// This interface is intended for components that only need to report writes
// but don't manage flushing themselves (registries, the arena file header).
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the file, length is the number of bytes.
	Add(off, length int)
}

// FlushableTracker extends DirtyTracker with methods for flushing dirty regions to disk.
// Transaction managers use it to control when and how data is persisted.
type FlushableTracker interface {
	DirtyTracker

	// FlushDataOnly flushes every dirty range outside the header page.
	FlushDataOnly(ctx context.Context) error

	// FlushHeaderAndMeta flushes the header page and syncs according to mode.
	FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error

	// Reset drops all pending ranges without flushing them.
	Reset()
}

// Mapping is the file-backed memory a Tracker flushes.
type Mapping interface {
	// Bytes returns the whole mapping, header included.
	Bytes() []byte

	// FD returns the file descriptor, or -1 when the file is closed.
	FD() int
}

// WriteBacker is implemented by mappings that are plain memory copies of a
// file (platforms without mmap). Flushing writes the ranges back instead of
// calling msync.
type WriteBacker interface {
	WriteBack(off int64, data []byte) error
	Sync() error
}
