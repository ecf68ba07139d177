package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena/dirty"
	"github.com/joshuapare/arenakit/internal/format"
)

type memMapping struct{ data []byte }

func (m *memMapping) Bytes() []byte { return m.data }
func (m *memMapping) FD() int       { return -1 }

// recordingTracker captures the calls the manager makes and the secondary
// sequence visible at each flush.
type recordingTracker struct {
	m      *memMapping
	calls  []string
	added  []dirty.Range
	secAt  map[string]uint32
	mode   dirty.FlushMode
	failOn string
}

func newRecordingTracker(m *memMapping) *recordingTracker {
	return &recordingTracker{m: m, secAt: map[string]uint32{}}
}

func (r *recordingTracker) Add(off, length int) {
	r.added = append(r.added, dirty.Range{Off: int64(off), Len: int64(length)})
}

func (r *recordingTracker) FlushDataOnly(ctx context.Context) error {
	return r.record(ctx, "data")
}

func (r *recordingTracker) FlushHeaderAndMeta(ctx context.Context, mode dirty.FlushMode) error {
	r.mode = mode
	return r.record(ctx, "header")
}

func (r *recordingTracker) Reset() {
	r.calls = append(r.calls, "reset")
	r.added = nil
}

func (r *recordingTracker) record(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.calls = append(r.calls, name)
	r.secAt[name] = format.ReadU32(r.m.data, format.SecondarySeqOffset)
	if r.failOn == name {
		return errors.New("injected flush failure")
	}
	return nil
}

func setupHeader(t *testing.T, seq uint32) *memMapping {
	t.Helper()
	data := make([]byte, format.HeaderSize+format.PageSize)
	require.NoError(t, format.PutHeader(data, format.Header{
		Version:      format.Version,
		MetaSize:     format.PageSize,
		ArenaSize:    0,
		PrimarySeq:   seq,
		SecondarySeq: seq,
	}))
	return &memMapping{data: data}
}

func parse(t *testing.T, m *memMapping) format.Header {
	t.Helper()
	h, err := format.ParseHeader(m.data)
	require.NoError(t, err, "header checksum must stay valid")
	return h
}

func TestManager_BeginBumpsPrimary(t *testing.T) {
	m := setupHeader(t, 100)
	dt := newRecordingTracker(m)
	tm := NewManager(m, dt, dirty.FlushAuto)

	require.NoError(t, tm.Begin(context.Background()))
	require.True(t, tm.InTransaction())
	assert.Equal(t, uint32(101), tm.CurrentSequence())

	h := parse(t, m)
	assert.Equal(t, uint32(101), h.PrimarySeq)
	assert.Equal(t, uint32(100), h.SecondarySeq)
	assert.False(t, h.Clean())
	assert.Equal(t, []dirty.Range{{Off: 0, Len: format.HeaderSize}}, dt.added)

	// Idempotent while active.
	require.NoError(t, tm.Begin(context.Background()))
	assert.Equal(t, uint32(101), parse(t, m).PrimarySeq)
}

func TestManager_CommitOrdersFlushes(t *testing.T) {
	m := setupHeader(t, 7)
	dt := newRecordingTracker(m)
	tm := NewManager(m, dt, dirty.FlushFull)
	ctx := context.Background()

	require.NoError(t, tm.Begin(ctx))
	require.NoError(t, tm.Commit(ctx))
	require.False(t, tm.InTransaction())

	assert.Equal(t, []string{"data", "header"}, dt.calls)
	assert.Equal(t, uint32(7), dt.secAt["data"], "data flushed before the commit marker")
	assert.Equal(t, uint32(8), dt.secAt["header"])
	assert.Equal(t, dirty.FlushFull, dt.mode)
	assert.True(t, parse(t, m).Clean())
}

func TestManager_CommitWithoutBegin(t *testing.T) {
	m := setupHeader(t, 1)
	dt := newRecordingTracker(m)
	tm := NewManager(m, dt, dirty.FlushAuto)

	require.NoError(t, tm.Commit(context.Background()))
	assert.Empty(t, dt.calls)
}

func TestManager_CommitDataFailureKeepsTransaction(t *testing.T) {
	m := setupHeader(t, 1)
	dt := newRecordingTracker(m)
	dt.failOn = "data"
	tm := NewManager(m, dt, dirty.FlushAuto)

	require.NoError(t, tm.Begin(context.Background()))
	err := tm.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush data pages")
	assert.True(t, tm.InTransaction())
	assert.False(t, parse(t, m).Clean(), "commit marker must not be written")
}

func TestManager_Rollback(t *testing.T) {
	m := setupHeader(t, 41)
	dt := newRecordingTracker(m)
	tm := NewManager(m, dt, dirty.FlushAuto)

	require.NoError(t, tm.Begin(context.Background()))
	dt.Add(0x2000, 16)
	tm.Rollback()

	require.False(t, tm.InTransaction())
	h := parse(t, m)
	assert.Equal(t, uint32(41), h.PrimarySeq)
	assert.True(t, h.Clean())
	assert.Contains(t, dt.calls, "reset")
	assert.Equal(t, []dirty.Range{{Off: 0, Len: format.HeaderSize}}, dt.added, "only the restored header stays dirty")

	// No-op when idle.
	tm.Rollback()
	assert.Equal(t, uint32(41), parse(t, m).PrimarySeq)
}

func TestManager_HeaderTooSmall(t *testing.T) {
	m := &memMapping{data: make([]byte, 16)}
	tm := NewManager(m, newRecordingTracker(m), dirty.FlushAuto)

	err := tm.Begin(context.Background())
	require.ErrorIs(t, err, ErrHeaderTooSmall)
	assert.False(t, tm.InTransaction())
}
