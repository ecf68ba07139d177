// Package arena provides relocatable arenas: a fixed-size byte region plus
// the bookkeeping that tracks which parts of it are in use, addressed only by
// offsets so the whole structure works at any base address.
//
// # Overview
//
// Three ways to build an arena:
//
//   - New: bookkeeping lives in a caller-supplied block, laid out as below.
//     The block can sit in shared memory and be adopted elsewhere with Attach.
//   - NewHeap: bookkeeping lives in B-trees on the Go heap. No record limit,
//     single process only.
//   - Create / Open: the block and the arena live in one file mapped with
//     MAP_SHARED, and updates are committed with a header sequence protocol.
//
// # Block Layout
//
// All fields little-endian:
//
//	0x00  u32  free count
//	0x04  u32  used count
//	0x08  free records  [capacity] x {offset u32, size u32}
//	....  used records  [capacity] x {offset u32, size u32}
//
// capacity = (len(block) - 8) / 16. Both registries get the same capacity.
// Any two processes that share a block must agree on this layout byte for
// byte.
//
// # Usage
//
//	f, err := arena.Create("/dev/shm/jobs.arena", 1<<20, 1024)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	err = f.Update(ctx, func(a *arena.Arena) error {
//	    p, err := a.Alloc(128)
//	    if err != nil {
//	        return err
//	    }
//	    return f.Write(p, payload)
//	})
//
// Another process opens the same path with arena.Open and reads the payload
// with f.Slice(p, 128), wherever its mapping lands.
//
// # Thread Safety
//
// Nothing here locks. Serialise writers externally; alloc.Synchronized covers
// goroutines inside one process.
package arena
