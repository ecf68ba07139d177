package registry

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/internal/buf"
	"github.com/joshuapare/arenakit/internal/format"
)

type recordingTracker struct {
	ranges [][2]int
}

func (r *recordingTracker) Add(off, length int) {
	r.ranges = append(r.ranges, [2]int{off, length})
}

func TestArray_CapacityExceeded(t *testing.T) {
	a := newTestArray(t, 2)
	require.NoError(t, a.Insert(Region{0, 1}))
	require.NoError(t, a.Insert(Region{1, 1}))

	err := a.Insert(Region{2, 1})
	require.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Equal(t, 2, a.Len(), "failed insert leaves the count unchanged")
	assert.Equal(t, 2, a.Cap())
}

func TestArray_SwapWithLastRemoval(t *testing.T) {
	a := newTestArray(t, 4)
	require.NoError(t, a.Insert(Region{0, 1}))
	require.NoError(t, a.Insert(Region{1, 1}))
	require.NoError(t, a.Insert(Region{2, 1}))

	require.True(t, a.RemoveExact(Region{0, 1}))

	// Slot 0 now holds what was the last record.
	assert.Equal(t, Region{2, 1}, a.record(0))
	assert.Equal(t, Region{1, 1}, a.record(1))
	assert.Equal(t, 2, a.Len())
}

func TestArray_ScanNewestFirst(t *testing.T) {
	a := newTestArray(t, 4)
	require.NoError(t, a.Insert(Region{0, 1}))
	require.NoError(t, a.Insert(Region{5, 1}))
	require.NoError(t, a.Insert(Region{3, 1}))

	var order []uint32
	a.Scan(func(r Region) bool {
		order = append(order, r.Offset)
		return true
	})
	assert.Equal(t, []uint32{3, 5, 0}, order)
}

func TestArray_WireLayout(t *testing.T) {
	block := make([]byte, format.BlockSizeFor(2))
	a, err := NewArray(block, format.UsedCountOffset, format.UsedRecordsOffset(2), 2)
	require.NoError(t, err)
	require.NoError(t, a.Insert(Region{Offset: 0x11223344, Size: 0x55667788}))

	assert.Equal(t, uint32(1), format.ReadU32(block, format.UsedCountOffset))
	assert.Equal(t, uint32(0), format.ReadU32(block, format.FreeCountOffset))
	rec := format.UsedRecordsOffset(2)
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11, 0x88, 0x77, 0x66, 0x55}, block[rec:rec+8],
		"offset precedes size, both little-endian")
}

func TestArray_AttachSeesExistingRecords(t *testing.T) {
	block := make([]byte, format.BlockSizeFor(4))
	a, err := NewArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), 4)
	require.NoError(t, err)
	require.NoError(t, a.Insert(Region{0, 8}))
	require.NoError(t, a.Insert(Region{16, 8}))

	b, err := AttachArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), 4)
	require.NoError(t, err)
	assert.Equal(t, Collect(a), Collect(b))

	// Writes through one view are visible through the other.
	require.True(t, b.RemoveExact(Region{0, 8}))
	assert.Equal(t, 1, a.Len())
}

func TestArray_AttachRejectsCorruptState(t *testing.T) {
	block := make([]byte, format.BlockSizeFor(2))
	format.PutU32(block, format.FreeCountOffset, 3)
	_, err := AttachArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), 2)
	require.True(t, errors.Is(err, ErrCorrupt))

	format.PutU32(block, format.FreeCountOffset, 1) // record 0 is all zeros
	_, err = AttachArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), 2)
	require.True(t, errors.Is(err, ErrCorrupt))
}

func TestArray_BoundsChecked(t *testing.T) {
	block := make([]byte, 16)
	_, err := NewArray(block, 0, 8, 2)
	require.True(t, errors.Is(err, buf.ErrOutOfBounds), "two records need 16 bytes after offset 8")

	_, err = NewArray(block, 14, 0, 1)
	require.True(t, errors.Is(err, buf.ErrOutOfBounds), "counter past the end")

	_, err = NewArray(block, 4, 0, 1)
	require.Error(t, err, "counter inside the record array")
}

func TestArray_ReportsDirtyRanges(t *testing.T) {
	block := make([]byte, format.BlockSizeFor(2))
	dt := &recordingTracker{}
	a, err := NewArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), 2,
		WithDirtyTracker(dt, 0x1000))
	require.NoError(t, err)
	require.NoError(t, a.Insert(Region{0, 8}))

	assert.Contains(t, dt.ranges, [2]int{0x1000 + format.FreeCountOffset, format.CounterSize})
	assert.Contains(t, dt.ranges, [2]int{0x1000 + format.FreeRecordsOffset(), format.RecordSize})
}
