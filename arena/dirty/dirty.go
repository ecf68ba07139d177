package dirty

import (
	"cmp"
	"context"
	"slices"

	"github.com/cockroachdb/errors"
)

const (
	defaultRangeCapacity = 64
	standardPageSize     = 4096 // msync granularity assumed by coalesce
)

// FlushMode controls durability guarantees for transaction commits.
type FlushMode int

const (
	// FlushAuto msyncs the header page and then fdatasyncs the file.
	FlushAuto FlushMode = iota

	// FlushDataOnly msyncs the header page but skips fdatasync. Use this when
	// batching several commits and syncing once at the end.
	FlushDataOnly

	// FlushFull is FlushAuto plus F_FULLFSYNC on macOS.
	FlushFull
)

// String returns the spelling accepted by ParseFlushMode.
func (m FlushMode) String() string {
	switch m {
	case FlushAuto:
		return "auto"
	case FlushDataOnly:
		return "data"
	case FlushFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseFlushMode maps "auto", "data" or "full" to a FlushMode.
func ParseFlushMode(s string) (FlushMode, error) {
	for _, m := range []FlushMode{FlushAuto, FlushDataOnly, FlushFull} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errors.Newf("dirty: unknown flush mode %q", s)
}

// Range represents a dirty byte range (absolute file offsets).
type Range struct {
	Off int64 // Absolute offset in file
	Len int64 // Length in bytes
}

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	m        Mapping
	ranges   []Range // raw ranges, coalesced at flush time
	pageSize int64
}

// NewTracker creates a dirty tracker for the given mapping.
func NewTracker(m Mapping) *Tracker {
	return &Tracker{
		m:        m,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. Zero and negative lengths are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Pending reports how many raw ranges are waiting to be flushed.
func (t *Tracker) Pending() int {
	return len(t.ranges)
}

// FlushDataOnly flushes all dirty ranges except the header page.
//
// If ctx is cancelled while flushing, some ranges may have been flushed while
// others have not; the pending list is kept so a retry flushes them again.
func (t *Tracker) FlushDataOnly(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data := t.m.Bytes()
	if len(data) == 0 {
		return nil
	}
	if err := t.flushRanges(ctx, data); err != nil {
		return err
	}
	t.ranges = t.ranges[:0]
	return nil
}

// FlushHeaderAndMeta flushes the header page and, depending on mode, syncs
// the file descriptor.
func (t *Tracker) FlushHeaderAndMeta(ctx context.Context, mode FlushMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := t.m.Bytes()
	if len(data) == 0 {
		return nil
	}
	headerLen := min(int(t.pageSize), len(data))
	if err := t.flushHeader(data[:headerLen]); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if mode == FlushDataOnly {
		return nil
	}
	return t.syncFile(mode == FlushFull)
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// Ranges returns the page-aligned, merged ranges the next flush would write.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// coalesce widens every range to page boundaries and merges the ones that
// overlap or touch, returning them in file order.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}
	ps := t.pageSize
	pages := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		lo := r.Off - r.Off%ps
		hi := (r.Off + r.Len + ps - 1) / ps * ps
		pages[i] = Range{Off: lo, Len: hi - lo}
	}
	slices.SortFunc(pages, func(a, b Range) int { return cmp.Compare(a.Off, b.Off) })

	out := pages[:1]
	for _, r := range pages[1:] {
		last := &out[len(out)-1]
		if r.Off > last.Off+last.Len {
			out = append(out, r)
			continue
		}
		last.Len = max(last.Len, r.Off+r.Len-last.Off)
	}
	return out
}

// clamp limits r to data and reports whether anything remains, skipping the
// header page.
func clamp(r Range, data []byte, pageSize int64) (int, int, bool) {
	start, end := r.Off, r.Off+r.Len
	if start < pageSize {
		start = pageSize
	}
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	if start >= end {
		return 0, 0, false
	}
	return int(start), int(end), true
}
