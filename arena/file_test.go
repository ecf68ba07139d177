//go:build linux || darwin

package arena

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/verify"
	"github.com/joshuapare/arenakit/internal/format"
)

func createTestFile(t *testing.T, arenaSize uint32, records int) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.arena")
	f, err := Create(path, arenaSize, records)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, path
}

func TestCreate_Layout(t *testing.T) {
	f, path := createTestFile(t, 8192, 16)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(format.HeaderSize+format.PageSize+8192), st.Size())

	h, err := f.Header()
	require.NoError(t, err)
	assert.Equal(t, uint32(format.PageSize), h.MetaSize)
	assert.Equal(t, uint32(8192), h.ArenaSize)
	assert.True(t, f.Clean())
	assert.Equal(t, MetaCapacity(format.PageSize), f.Capacity(), "block rounded up to a page")
	assert.Len(t, f.Data(), 8192)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, verify.FileHeader(raw))
}

func TestCreate_Rejects(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(filepath.Join(dir, "zero"), 0, 4)
	require.ErrorIs(t, err, alloc.ErrZeroArena)

	_, err = Create(filepath.Join(dir, "norecords"), 100, 0)
	require.ErrorIs(t, err, ErrBlockTooSmall)

	_, path := createTestFile(t, 100, 4)
	_, err = Create(path, 100, 4)
	require.ErrorIs(t, err, os.ErrExist)
}

func TestFile_UpdatePersists(t *testing.T) {
	f, path := createTestFile(t, 4096, 8)
	ctx := context.Background()

	var p alloc.RelativePtr
	err := f.Update(ctx, func(a *Arena) error {
		var err error
		if p, err = a.Alloc(5); err != nil {
			return err
		}
		return f.Write(p, []byte("hello"))
	})
	require.NoError(t, err)
	require.True(t, f.Clean())
	require.NoError(t, f.Close())

	g, err := Open(path)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, []alloc.Region{{Offset: p, Size: 5}}, g.UsedRegions())
	got, err := g.Slice(p, 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.True(t, g.Clean())

	h, err := g.Header()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.PrimarySeq)
}

func TestFile_UpdateRollsBackOnError(t *testing.T) {
	f, _ := createTestFile(t, 4096, 8)
	boom := errors.New("boom")

	err := f.Update(context.Background(), func(a *Arena) error {
		_, err := a.Alloc(10_000)
		require.ErrorIs(t, err, alloc.ErrOutOfMemory)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, f.Clean(), "rollback restores the sequence")
	assert.Equal(t, []alloc.Region{{Offset: 0, Size: 4096}}, f.FreeRegions())
}

// TestFile_SharedMappings opens the same file twice; each mapping has its own
// base address, yet both see the same allocator state.
func TestFile_SharedMappings(t *testing.T) {
	f, path := createTestFile(t, 4096, 8)
	g, err := Open(path)
	require.NoError(t, err)
	defer g.Close()
	require.NotSame(t, &f.Bytes()[0], &g.Bytes()[0])

	var p alloc.RelativePtr
	require.NoError(t, f.Update(context.Background(), func(a *Arena) error {
		var err error
		p, err = a.Alloc(64)
		if err != nil {
			return err
		}
		return f.Write(p, []byte("shared"))
	}))

	r, ok := g.Lookup(p)
	require.True(t, ok)
	assert.Equal(t, uint32(64), r.Size)
	got, err := g.Slice(p, 6)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(got))

	q, err := g.Alloc(32)
	require.NoError(t, err)
	assert.NotEqual(t, p, q)
	require.NoError(t, f.Check())
}

func TestFile_OpenInterrupted(t *testing.T) {
	_, path := createTestFile(t, 4096, 8)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	format.PutU32(raw, format.PrimarySeqOffset, 5)
	format.UpdateChecksum(raw)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	g, err := Open(path)
	require.NoError(t, err)
	defer g.Close()
	assert.False(t, g.Clean())

	// The next commit heals the header.
	require.NoError(t, g.Update(context.Background(), func(*Arena) error { return nil }))
	assert.True(t, g.Clean())
}

func TestOpen_Rejects(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(short, []byte("ARNA"), 0o644))
	_, err := Open(short)
	require.ErrorIs(t, err, format.ErrTruncated)

	_, path := createTestFile(t, 4096, 8)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	badMagic := filepath.Join(dir, "magic")
	bad := append([]byte(nil), raw...)
	copy(bad, "XXXX")
	require.NoError(t, os.WriteFile(badMagic, bad, 0o644))
	_, err = Open(badMagic)
	var verr *verify.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "FileHeader", verr.Type)

	truncated := filepath.Join(dir, "truncated")
	require.NoError(t, os.WriteFile(truncated, raw[:len(raw)-1], 0o644))
	_, err = Open(truncated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too small")

	corrupt := filepath.Join(dir, "corrupt")
	bad = append([]byte(nil), raw...)
	format.PutU32(bad, format.HeaderSize+format.FreeRecordsOffset()+format.RecordSizeField, 1)
	require.NoError(t, os.WriteFile(corrupt, bad, 0o644))
	_, err = Open(corrupt)
	require.ErrorIs(t, err, alloc.ErrCorrupt)
}

func TestFile_SliceBounds(t *testing.T) {
	f, _ := createTestFile(t, 100, 4)

	_, err := f.Slice(90, 11)
	require.ErrorIs(t, err, ErrOutOfRange)
	b, err := f.Slice(90, 10)
	require.NoError(t, err)
	assert.Len(t, b, 10)
	assert.Equal(t, 10, cap(b), "slice cannot reach past the region")
	require.ErrorIs(t, f.Write(99, []byte("ab")), ErrOutOfRange)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "double close")
	_, err = f.Slice(0, 1)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, f.Update(context.Background(), func(*Arena) error { return nil }), ErrClosed)
	assert.Equal(t, -1, f.FD())
}
