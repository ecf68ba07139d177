package arena

import (
	"context"
	"log/slog"
	"math"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/dirty"
	"github.com/joshuapare/arenakit/arena/tx"
	"github.com/joshuapare/arenakit/arena/verify"
	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
	"github.com/joshuapare/arenakit/internal/mmfile"
)

// File is an arena stored in a file and mapped MAP_SHARED, so every process
// that opens the same path sees the same bookkeeping and data at its own base
// address. The layout is:
//
//	0x0000              header page (see format.Header)
//	0x1000              bookkeeping block, MetaSize bytes
//	0x1000 + MetaSize   arena data, ArenaSize bytes
//
// Changes reach disk through Update, which wraps them in a transaction.
// A File is not safe for concurrent use.
type File struct {
	*Arena

	path    string
	f       *os.File
	data    []byte // whole mapping
	unmap   func() error
	dataOff int // absolute offset of arena byte 0
	size    int // arena size in bytes

	dt  *dirty.Tracker
	tm  *tx.Manager
	log *slog.Logger
}

// Create writes a new arena file at path with room for records regions per
// registry and maps it. The bookkeeping block is rounded up to whole pages,
// so the resulting capacity may exceed records. Create fails if path exists.
func Create(path string, arenaSize uint32, records int, opts ...Option) (*File, error) {
	if arenaSize == 0 {
		return nil, alloc.ErrZeroArena
	}
	if records <= 0 {
		return nil, errors.Wrapf(ErrBlockTooSmall, "%d records requested", records)
	}
	metaSize := format.AlignPage(MetaSizeFor(records))
	if uint64(metaSize) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrBlockTooSmall, "bookkeeping for %d records exceeds 4GiB", records)
	}
	h := format.Header{
		Version:   format.Version,
		MetaSize:  uint32(metaSize),
		ArenaSize: arenaSize,
	}

	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	if err := fh.Truncate(h.FileSize()); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return nil, errors.Wrap(err, "arena: size file")
	}

	f, err := mapFile(path, fh, h.FileSize(), opts)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if err := format.PutHeader(f.data, h); err != nil {
		f.discard(true)
		return nil, err
	}
	f.dt.Add(0, format.HeaderSize)
	f.setLayout(h)

	f.Arena, err = New(f.block(h), arenaSize, f.arenaOptions(opts)...)
	if err != nil {
		f.discard(true)
		return nil, err
	}
	if err := f.flush(context.Background(), dirty.FlushAuto); err != nil {
		f.discard(true)
		return nil, errors.Wrap(err, "arena: initial flush")
	}
	f.log.Debug("arena file created", "path", path, "arenaSize", arenaSize, "metaSize", metaSize, "capacity", f.Capacity())
	return f, nil
}

// Open maps an existing arena file and adopts its bookkeeping. The header is
// validated first; the registries are then checked to tile the arena. A file
// left mid-transaction opens normally and reports Clean() == false.
func Open(path string, opts ...Option) (*File, error) {
	fh, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	if st.Size() < format.HeaderSize {
		_ = fh.Close()
		return nil, errors.Wrapf(format.ErrTruncated, "arena file %s: %d bytes", path, st.Size())
	}

	f, err := mapFile(path, fh, st.Size(), opts)
	if err != nil {
		return nil, err
	}
	if err := verify.FileHeader(f.data); err != nil {
		f.discard(false)
		return nil, errors.Wrapf(err, "arena file %s", path)
	}
	h, err := format.ParseHeader(f.data)
	if err != nil {
		f.discard(false)
		return nil, err
	}
	f.setLayout(h)

	f.Arena, err = Attach(f.block(h), h.ArenaSize, f.arenaOptions(opts)...)
	if err != nil {
		f.discard(false)
		return nil, errors.Wrapf(err, "arena file %s", path)
	}
	f.log.Debug("arena file opened", "path", path, "arenaSize", h.ArenaSize, "clean", h.Clean())
	return f, nil
}

func mapFile(path string, fh *os.File, size int64, opts []Option) (*File, error) {
	if size > math.MaxInt {
		_ = fh.Close()
		return nil, errors.Newf("arena: file too large to map (%d bytes)", size)
	}
	data, unmap, err := mmfile.MapRW(fh, int(size))
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	cfg := buildConfig(opts)
	log := cfg.logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	f := &File{path: path, f: fh, data: data, unmap: unmap, log: log}
	f.dt = dirty.NewTracker(f)
	f.tm = tx.NewManager(f, f.dt, cfg.flushMode)
	return f, nil
}

func (f *File) setLayout(h format.Header) {
	f.dataOff = int(h.DataOffset())
	f.size = int(h.ArenaSize)
}

func (f *File) block(h format.Header) []byte {
	return f.data[format.HeaderSize : format.HeaderSize+int(h.MetaSize)]
}

// arenaOptions appends the file's own tracker so caller options cannot
// detach bookkeeping writes from the flush path.
func (f *File) arenaOptions(opts []Option) []Option {
	out := append([]Option(nil), opts...)
	return append(out, WithDirtyTracker(f.dt, format.HeaderSize))
}

// discard releases the mapping after a failed Create or Open.
func (f *File) discard(remove bool) {
	_ = f.unmap()
	_ = f.f.Close()
	if remove {
		_ = os.Remove(f.path)
	}
}

// Bytes returns the whole mapping, header included.
func (f *File) Bytes() []byte { return f.data }

// FD returns the file descriptor, or -1 once closed.
func (f *File) FD() int {
	if f == nil || f.f == nil {
		return -1
	}
	return int(f.f.Fd())
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Data returns the arena bytes. Index it with a RelativePtr.
func (f *File) Data() []byte {
	if f.data == nil {
		return nil
	}
	return f.data[f.dataOff : f.dataOff+f.size : f.dataOff+f.size]
}

// Slice returns the n arena bytes starting at p.
func (f *File) Slice(p alloc.RelativePtr, n uint32) ([]byte, error) {
	if f.data == nil {
		return nil, ErrClosed
	}
	b, ok := buf.Slice(f.Data(), int(p), int(n))
	if !ok {
		return nil, errors.Wrapf(ErrOutOfRange, "[0x%X, +%d) in %d-byte arena", p, n, f.size)
	}
	return b, nil
}

// Write copies b into the arena at p and marks the range dirty.
func (f *File) Write(p alloc.RelativePtr, b []byte) error {
	dst, err := f.Slice(p, uint32(len(b)))
	if err != nil {
		return err
	}
	copy(dst, b)
	f.dt.Add(f.dataOff+int(p), len(b))
	return nil
}

// Header returns the header as currently mapped.
func (f *File) Header() (format.Header, error) {
	if f.data == nil {
		return format.Header{}, ErrClosed
	}
	return format.ParseHeader(f.data)
}

// Clean reports whether the last transaction committed.
func (f *File) Clean() bool {
	h, err := f.Header()
	return err == nil && h.Clean()
}

// Update runs fn inside a transaction. If fn returns an error the transaction
// is rolled back and the error returned; otherwise every dirty range is
// flushed before the header is marked committed.
func (f *File) Update(ctx context.Context, fn func(a *Arena) error) error {
	if f.data == nil {
		return ErrClosed
	}
	if err := f.tm.Begin(ctx); err != nil {
		return err
	}
	if err := fn(f.Arena); err != nil {
		f.tm.Rollback()
		return err
	}
	if err := f.tm.Commit(ctx); err != nil {
		return err
	}
	f.log.Debug("arena update committed", "path", f.path, "seq", f.tm.CurrentSequence())
	return nil
}

func (f *File) flush(ctx context.Context, mode dirty.FlushMode) error {
	if err := f.dt.FlushDataOnly(ctx); err != nil {
		return err
	}
	return f.dt.FlushHeaderAndMeta(ctx, mode)
}

// Close rolls back an open transaction and unmaps the file.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	if f.tm.InTransaction() {
		f.tm.Rollback()
	}
	var err error
	if f.unmap != nil {
		err = f.unmap()
	}
	if cerr := f.f.Close(); err == nil {
		err = cerr
	}
	f.data = nil
	f.f = nil
	return err
}
