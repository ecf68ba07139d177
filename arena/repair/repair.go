// Package repair rebuilds damaged arena bookkeeping.
//
// The used registry is the source of truth: it records what callers own.
// Repair keeps every used record that is non-empty, inside the arena and
// disjoint from the records before it, then recomputes the free registry as
// the exact complement. A file repair also closes an interrupted transaction
// by setting the secondary sequence to the primary one.
package repair

import (
	"cmp"
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena/dirty"
	"github.com/joshuapare/arenakit/arena/registry"
	"github.com/joshuapare/arenakit/arena/verify"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/mmfile"
)

var (
	// ErrUnrecoverable is returned when used records conflict and Config.DropInvalid is off.
	ErrUnrecoverable = errors.New("repair: conflicting used records")
	// ErrNoCapacity is returned when the rebuilt free registry does not fit the block.
	ErrNoCapacity = errors.New("repair: free regions exceed block capacity")
)

// Config controls a repair.
type Config struct {
	// DryRun computes the result without writing anything.
	DryRun bool
	// DropInvalid discards used records that are empty, out of range or
	// overlap an earlier record. Without it such records abort the repair.
	DropInvalid bool
	// Logger receives one line per dropped record. Nil discards.
	Logger *slog.Logger
}

// Result describes what a repair found and did.
type Result struct {
	Problem  error             // validation error before repair, nil if healthy
	Kept     []registry.Region // used regions after repair, by offset
	Dropped  []registry.Region // used records discarded
	Free     []registry.Region // rebuilt free regions, by offset
	Reopened bool              // header sequences were unequal
	Applied  bool              // bookkeeping was rewritten
}

// Block repairs a bookkeeping block in place for an arena of size bytes.
func Block(block []byte, size uint32, cfg Config) (Result, error) {
	res, err := plan(block, size, cfg)
	if err != nil || cfg.DryRun || res.Problem == nil {
		return res, err
	}
	if err := write(block, res, nil, 0); err != nil {
		return res, err
	}
	res.Applied = true
	return res, nil
}

func plan(block []byte, size uint32, cfg Config) (Result, error) {
	if size == 0 {
		return Result{}, errors.New("repair: arena size is zero")
	}
	capacity := format.BlockCapacity(len(block))
	if capacity == 0 {
		return Result{}, errors.Newf("repair: block of %d bytes holds no records", len(block))
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	free := readRecords(block, format.FreeCountOffset, format.FreeRecordsOffset(), capacity)
	used := readRecords(block, format.UsedCountOffset, format.UsedRecordsOffset(capacity), capacity)

	var res Result
	res.Problem = verify.AllInvariants(size, free, used)
	if n := format.ReadU32(block, format.FreeCountOffset); uint64(n) > uint64(capacity) && res.Problem == nil {
		res.Problem = errors.Newf("free count %d exceeds capacity %d", n, capacity)
	}
	if n := format.ReadU32(block, format.UsedCountOffset); uint64(n) > uint64(capacity) && res.Problem == nil {
		res.Problem = errors.Newf("used count %d exceeds capacity %d", n, capacity)
	}
	if res.Problem == nil {
		res.Kept, res.Free = sorted(used), sorted(free)
		return res, nil
	}

	slices.SortStableFunc(used, byOffset)
	var end uint64
	for _, r := range used {
		if r.Size == 0 || r.End() > uint64(size) || uint64(r.Offset) < end {
			res.Dropped = append(res.Dropped, r)
			log.Debug("repair: dropping used record", "offset", r.Offset, "size", r.Size)
			continue
		}
		res.Kept = append(res.Kept, r)
		end = r.End()
	}
	if len(res.Dropped) > 0 && !cfg.DropInvalid {
		return res, errors.Wrapf(ErrUnrecoverable, "%d used record(s) conflict", len(res.Dropped))
	}

	res.Free = complement(res.Kept, size)
	if len(res.Free) > capacity {
		return res, errors.Wrapf(ErrNoCapacity, "%d free regions, capacity %d", len(res.Free), capacity)
	}
	return res, nil
}

// readRecords returns the stored records, clamping a damaged count to capacity.
func readRecords(block []byte, countOff, recOff, capacity int) []registry.Region {
	n := min(int(format.ReadU32(block, countOff)), capacity)
	out := make([]registry.Region, n)
	for i := range n {
		off := recOff + i*format.RecordSize
		out[i] = registry.Region{
			Offset: format.ReadU32(block, off),
			Size:   format.ReadU32(block, off+4),
		}
	}
	return out
}

func byOffset(a, b registry.Region) int { return cmp.Compare(a.Offset, b.Offset) }

func sorted(rs []registry.Region) []registry.Region {
	out := slices.Clone(rs)
	slices.SortFunc(out, byOffset)
	return out
}

// complement returns the gaps between offset-sorted, disjoint used regions.
func complement(used []registry.Region, size uint32) []registry.Region {
	var out []registry.Region
	var pos uint64
	for _, r := range used {
		if uint64(r.Offset) > pos {
			out = append(out, registry.Region{Offset: uint32(pos), Size: uint32(uint64(r.Offset) - pos)})
		}
		pos = r.End()
	}
	if pos < uint64(size) {
		out = append(out, registry.Region{Offset: uint32(pos), Size: uint32(uint64(size) - pos)})
	}
	return out
}

func write(block []byte, res Result, dt registry.DirtyTracker, base int) error {
	capacity := format.BlockCapacity(len(block))
	var opts []registry.ArrayOption
	if dt != nil {
		opts = append(opts, registry.WithDirtyTracker(dt, base))
	}
	free, err := registry.NewArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), capacity, opts...)
	if err != nil {
		return err
	}
	used, err := registry.NewArray(block, format.UsedCountOffset, format.UsedRecordsOffset(capacity), capacity, opts...)
	if err != nil {
		return err
	}
	for _, r := range res.Kept {
		if err := used.Insert(r); err != nil {
			return err
		}
	}
	for _, r := range res.Free {
		if err := free.Insert(r); err != nil {
			return err
		}
	}
	return nil
}

// File repairs the arena file at path. The header must be intact; only the
// bookkeeping block and the sequence numbers are rewritten, then flushed
// with a full sync.
func File(ctx context.Context, path string, cfg Config) (Result, error) {
	fh, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return Result{}, err
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		return Result{}, err
	}
	if st.Size() < format.HeaderSize {
		return Result{}, errors.Wrapf(format.ErrTruncated, "%s: %d bytes", path, st.Size())
	}
	data, unmap, err := mmfile.MapRW(fh, int(st.Size()))
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = unmap() }()

	if err := verify.FileHeader(data); err != nil {
		return Result{}, errors.Wrap(err, "repair: header")
	}
	h, err := format.ParseHeader(data)
	if err != nil {
		return Result{}, err
	}
	block := data[format.HeaderSize : format.HeaderSize+int(h.MetaSize)]

	res, err := plan(block, h.ArenaSize, cfg)
	res.Reopened = !h.Clean()
	if err != nil || cfg.DryRun || (res.Problem == nil && !res.Reopened) {
		return res, err
	}

	m := &mapping{f: fh, data: data}
	dt := dirty.NewTracker(m)
	if res.Problem != nil {
		if err := write(block, res, dt, format.HeaderSize); err != nil {
			return res, err
		}
		res.Applied = true
	}
	format.PutU32(data, format.SecondarySeqOffset, h.PrimarySeq)
	format.UpdateChecksum(data)
	dt.Add(0, format.HeaderSize)

	if err := dt.FlushDataOnly(ctx); err != nil {
		return res, errors.Wrap(err, "repair: flush bookkeeping")
	}
	if err := dt.FlushHeaderAndMeta(ctx, dirty.FlushFull); err != nil {
		return res, errors.Wrap(err, "repair: flush header")
	}
	return res, nil
}

// mapping adapts a mapped file to dirty.Mapping.
type mapping struct {
	f    *os.File
	data []byte
}

func (m *mapping) Bytes() []byte { return m.data }
func (m *mapping) FD() int       { return int(m.f.Fd()) }

// WriteBack and Sync serve platforms where MapRW returns a copy.
func (m *mapping) WriteBack(off int64, b []byte) error {
	_, err := m.f.WriteAt(b, off)
	return err
}

func (m *mapping) Sync() error { return m.f.Sync() }
