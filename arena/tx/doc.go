// Package tx provides commit markers for arena file updates.
//
// # Overview
//
// The arena file header carries two sequence numbers. A writer bumps the
// primary sequence before it touches the file and copies it into the
// secondary sequence once every modified page is on disk:
//
//  1. Begin(): increment PrimarySeq, refresh the checksum, dirty the header
//  2. Apply modifications (registries and callers report dirty ranges)
//  3. Commit(): flush data ranges, set SecondarySeq = PrimarySeq, flush header
//
// Rollback() restores PrimarySeq and drops the pending ranges. Bookkeeping is
// already consistent at that point because failed allocator calls leave the
// registries unchanged.
//
// # Crash Recovery
//
// A crash between Begin and Commit leaves PrimarySeq != SecondarySeq. Opening
// such a file still works; arena.File.Clean reports false and the allocator
// re-validates the registries before adopting them.
//
// # Usage
//
//	dt := dirty.NewTracker(f)
//	tm := tx.NewManager(f, dt, dirty.FlushAuto)
//	if err := tm.Begin(ctx); err != nil {
//	    return err
//	}
//	// ... allocate, free, write arena bytes ...
//	if err := tm.Commit(ctx); err != nil {
//	    return err
//	}
//
// Most callers use arena.File.Update, which wraps this sequence.
//
// # Thread Safety
//
// Manager is NOT thread-safe.
package tx
