//go:build linux || darwin

package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/arena/alloc"
)

func TestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	src, err := arena.Create(filepath.Join(dir, "src.arena"), 1<<16, 32)
	require.NoError(t, err)
	defer src.Close()

	var p alloc.RelativePtr
	require.NoError(t, src.Update(context.Background(), func(a *arena.Arena) error {
		if _, err := a.Alloc(100); err != nil {
			return err
		}
		var err error
		p, err = a.Alloc(16)
		return err
	}))
	payload := []byte("relocatable data")
	require.NoError(t, src.Update(context.Background(), func(*arena.Arena) error {
		return src.Write(p, payload)
	}))

	for _, codec := range []Codec{CodecNone, CodecLZ4, CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Save(src, &buf, codec)
			require.NoError(t, err)

			dst, err := Restore(&buf, filepath.Join(dir, "dst-"+codec.String()+".arena"))
			require.NoError(t, err)
			defer dst.Close()

			assert.Equal(t, src.UsedRegions(), dst.UsedRegions())
			assert.Equal(t, src.FreeRegions(), dst.FreeRegions())
			got, err := dst.Slice(p, uint32(len(payload)))
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			assert.True(t, dst.Clean())
			require.NoError(t, dst.Check())
		})
	}
}

func TestSave_OpenTransaction(t *testing.T) {
	f, err := arena.Create(filepath.Join(t.TempDir(), "a.arena"), 4096, 8)
	require.NoError(t, err)
	defer f.Close()

	err = f.Update(context.Background(), func(*arena.Arena) error {
		_, err := Save(f, &bytes.Buffer{}, CodecNone)
		return err
	})
	require.Error(t, err)
}

func TestSave_Closed(t *testing.T) {
	f, err := arena.Create(filepath.Join(t.TempDir(), "a.arena"), 4096, 8)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Save(f, &bytes.Buffer{}, CodecNone)
	require.ErrorIs(t, err, arena.ErrClosed)
}

func TestRestore_Rejects(t *testing.T) {
	dir := t.TempDir()

	t.Run("not an arena image", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Write(&buf, compressible(8192), CodecZstd)
		require.NoError(t, err)

		path := filepath.Join(dir, "bad.arena")
		_, err = Restore(&buf, path)
		require.Error(t, err)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "nothing written for an invalid image")
	})

	t.Run("existing path", func(t *testing.T) {
		src, err := arena.Create(filepath.Join(dir, "exists.arena"), 4096, 8)
		require.NoError(t, err)
		defer src.Close()

		var buf bytes.Buffer
		_, err = Save(src, &buf, CodecLZ4)
		require.NoError(t, err)

		_, err = Restore(&buf, src.Path())
		require.ErrorIs(t, err, os.ErrExist)
	})
}

func TestSaveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.arena")
	f, err := arena.Create(path, 8192, 8)
	require.NoError(t, err)
	require.NoError(t, f.Update(context.Background(), func(a *arena.Arena) error {
		_, err := a.Alloc(512)
		return err
	}))
	require.NoError(t, f.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	var buf bytes.Buffer
	h, err := SaveFile(path, &buf, CodecLZ4)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(before)), h.RawLen)

	image, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, before, image)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "source file unchanged")
}

func TestSaveFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	junk := filepath.Join(dir, "junk")
	require.NoError(t, os.WriteFile(junk, compressible(8192), 0o644))
	_, err := SaveFile(junk, &bytes.Buffer{}, CodecNone)
	require.Error(t, err)

	_, err = SaveFile(filepath.Join(dir, "missing"), &bytes.Buffer{}, CodecNone)
	require.ErrorIs(t, err, os.ErrNotExist)
}
