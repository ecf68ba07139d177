// Package registry implements interval registries: collections of disjoint
// byte ranges inside an arena, addressed purely by offsets from the arena base.
//
// # Overview
//
// A Registry answers three questions for the allocator:
//
//   - Insert(r): record a new region
//   - RemoveExact(r): drop the region with exactly this offset and size
//   - FindContaining(p): which region covers byte p
//
// The allocator keeps two registries, one for free ranges and one for used
// ranges, and never needs to know which backend holds them.
//
// # Backends
//
// Array: bounded array of fixed 8-byte records inside a caller-supplied byte
// block, plus a 4-byte counter. This is the self-hosted form used when the
// bookkeeping must live in the same shared mapping as the data:
//
//	Record layout (little-endian):
//	  0x00  u32  offset
//	  0x04  u32  size
//
// Records are unordered. Removal copies the last record into the freed slot
// (swap-with-last), so erase is O(1) once the index is known and lookups are
// O(n). Scan visits the newest slot first.
//
// Ordered: heap-resident B-tree (github.com/google/btree) keyed on each
// region's last byte. Point lookup walks to the first region whose last byte
// is >= p, giving O(log n) FindContaining. Scan visits regions in ascending
// offset order.
//
// # Thread Safety
//
// Registries are not thread-safe. The Array backend is not safe even across
// processes: callers sharing a block must serialize writers externally.
package registry
