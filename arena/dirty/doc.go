// Package dirty tracks modified byte ranges of a memory-mapped arena file and
// flushes them to disk.
//
// # Overview
//
// Writers (the Array registry, the arena header, callers filling allocated
// regions) report each modified range with Add. At flush time the tracker
// page-aligns the ranges, sorts and merges them, and syncs each merged range:
//
//   - Linux: msync(2) per range
//   - macOS: msync(2) over the whole mapping (sub-range msync needs the
//     original mapping address)
//   - Other platforms: the file is not mapped, so ranges are written back
//     with WriteAt
//
// The header page (offset 0) is only flushed by FlushHeaderAndMeta, which the
// tx package calls after the data ranges are durable.
//
// # Usage
//
//	dt := dirty.NewTracker(f)
//	dt.Add(0x2000, 16)
//	if err := dt.FlushDataOnly(ctx); err != nil {
//	    return err
//	}
//	if err := dt.FlushHeaderAndMeta(ctx, dirty.FlushAuto); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Tracker is not thread-safe.
package dirty
