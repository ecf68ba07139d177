package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena/registry"
	"github.com/joshuapare/arenakit/internal/format"
)

type region = registry.Region

func TestTiling_Valid(t *testing.T) {
	free := []region{{Offset: 0, Size: 10}, {Offset: 40, Size: 60}}
	used := []region{{Offset: 10, Size: 30}}

	require.NoError(t, Tiling(100, free, used))
	require.NoError(t, AllInvariants(100, free, used))
}

func TestTiling_WholeArenaFree(t *testing.T) {
	require.NoError(t, Tiling(1<<20, []region{{Offset: 0, Size: 1 << 20}}, nil))
}

func TestTiling_MaxArena(t *testing.T) {
	const size = ^uint32(0)
	used := []region{{Offset: 0, Size: size - 1}}
	free := []region{{Offset: size - 1, Size: 1}}
	require.NoError(t, Tiling(size, free, used))
}

func TestDisjoint_Overlap(t *testing.T) {
	free := []region{{Offset: 0, Size: 20}}
	used := []region{{Offset: 10, Size: 90}}

	err := Disjoint(100, free, used)
	require.Error(t, err)
	require.Contains(t, err.Error(), "overlaps")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Disjoint", verr.Type)
	require.Equal(t, int64(10), verr.Offset)
	require.Equal(t, uint64(10), verr.Details["overlap"])
}

func TestDisjoint_OutOfBounds(t *testing.T) {
	err := Disjoint(100, []region{{Offset: 90, Size: 20}}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ends past arena size")
}

func TestDisjoint_EmptyRegion(t *testing.T) {
	err := Disjoint(100, nil, []region{{Offset: 5, Size: 0}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty used region")
}

func TestConservation_Gap(t *testing.T) {
	free := []region{{Offset: 0, Size: 10}}
	used := []region{{Offset: 20, Size: 80}}

	require.NoError(t, Disjoint(100, free, used))
	err := Conservation(100, free, used)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Conservation", verr.Type)
	require.Equal(t, int64(-1), verr.Offset)
	require.Equal(t, "Conservation: free 10 + used 80 != arena size 100", err.Error())
}

func TestCoalesced(t *testing.T) {
	require.NoError(t, Coalesced(nil))
	require.NoError(t, Coalesced([]region{{Offset: 0, Size: 10}, {Offset: 11, Size: 5}}))

	err := Coalesced([]region{{Offset: 0, Size: 10}, {Offset: 10, Size: 5}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "adjacent")
}

func TestAllInvariants_Uncoalesced(t *testing.T) {
	free := []region{{Offset: 0, Size: 10}, {Offset: 10, Size: 10}}
	used := []region{{Offset: 20, Size: 80}}

	require.NoError(t, Tiling(100, free, used))
	require.Error(t, AllInvariants(100, free, used))
}

func TestRegistries(t *testing.T) {
	free := registry.NewOrdered()
	used := registry.NewOrdered()
	require.NoError(t, used.Insert(region{Offset: 0, Size: 64}))
	require.NoError(t, free.Insert(region{Offset: 64, Size: 192}))

	require.NoError(t, Registries(256, free, used))
	require.Error(t, Registries(512, free, used))
}

func validFile(t *testing.T, arenaSize uint32) []byte {
	t.Helper()
	h := format.Header{
		Version:   format.Version,
		MetaSize:  format.PageSize,
		ArenaSize: arenaSize,
	}
	data := make([]byte, h.FileSize())
	require.NoError(t, format.PutHeader(data, h))
	return data
}

func TestFileHeader_Valid(t *testing.T) {
	require.NoError(t, FileHeader(validFile(t, 8192)))
}

func TestFileHeader_BadSignature(t *testing.T) {
	data := validFile(t, 8192)
	copy(data, "XXXX")

	err := FileHeader(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "signature mismatch")
}

func TestFileHeader_Truncated(t *testing.T) {
	data := validFile(t, 8192)

	err := FileHeader(data[:len(data)-1])
	require.Error(t, err)
	require.Contains(t, err.Error(), "file too small")
}

func TestFileHeader_UnalignedMeta(t *testing.T) {
	data := validFile(t, 8192)
	format.PutU32(data, format.MetaSizeOffset, 100)
	format.UpdateChecksum(data)

	err := FileHeader(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not page aligned")
}

func TestSequenceNumbers(t *testing.T) {
	data := validFile(t, 4096)
	require.NoError(t, SequenceNumbers(data))

	format.PutU32(data, format.PrimarySeqOffset, 7)
	format.UpdateChecksum(data)

	err := SequenceNumbers(data)
	require.Error(t, err)
	require.Contains(t, err.Error(), "primary 7 != secondary 0")
}
