// Package verify checks arena bookkeeping and file invariants.
//
// # Overview
//
// The allocator keeps two registries, free and used, that must together tile
// the arena: every byte in [0, size) belongs to exactly one region. This
// package confirms that property and a few related ones:
//
//   - Disjoint: no two regions share a byte and every region lies in bounds
//   - Conservation: free bytes plus used bytes equal the arena size
//   - Tiling: both of the above
//   - Coalesced: no two free regions touch
//   - FileHeader: signature, version, checksum and size of an arena file
//
// Overlap detection runs on a roaring bitmap of covered bytes, so arenas of
// several gigabytes are checked without materialising a byte map.
//
// # ValidationError
//
// Every check returns a *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string         // check that failed, e.g. "Disjoint"
//	    Message string         // human-readable description
//	    Offset  int64          // arena or file offset, -1 when not applicable
//	    Details map[string]any // extra context
//	}
//
// The allocator runs Tiling when adopting existing bookkeeping. Tests run
// AllInvariants after every mutation.
package verify
