package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena/registry"
	"github.com/joshuapare/arenakit/internal/format"
)

type backend struct {
	name string
	new  func(t *testing.T, size uint32) *Allocator
}

// backends returns an allocator constructor per registry implementation.
func backends() []backend {
	return []backend{
		{"array", func(t *testing.T, size uint32) *Allocator {
			a, _ := newArrayAllocator(t, size, 256)
			return a
		}},
		{"ordered", func(t *testing.T, size uint32) *Allocator {
			a, err := New(size, registry.NewOrdered(), registry.NewOrdered())
			require.NoError(t, err)
			return a
		}},
	}
}

// newArrayBlock lays out both array registries in one block the way the
// arena package does.
func newArrayBlock(t testing.TB, capacity int) (free, used *registry.Array, block []byte) {
	t.Helper()
	block = make([]byte, format.BlockSizeFor(capacity))
	free, err := registry.NewArray(block, format.FreeCountOffset, format.FreeRecordsOffset(), capacity)
	require.NoError(t, err)
	used, err = registry.NewArray(block, format.UsedCountOffset, format.UsedRecordsOffset(capacity), capacity)
	require.NoError(t, err)
	return free, used, block
}

func newArrayAllocator(t testing.TB, size uint32, capacity int) (*Allocator, []byte) {
	t.Helper()
	free, used, block := newArrayBlock(t, capacity)
	a, err := New(size, free, used)
	require.NoError(t, err)
	return a, block
}

func mustAlloc(t *testing.T, a *Allocator, n uint32) RelativePtr {
	t.Helper()
	p, err := a.Alloc(n)
	require.NoError(t, err, "alloc %d", n)
	return p
}

func mustFree(t *testing.T, a *Allocator, p RelativePtr) {
	t.Helper()
	require.NoError(t, a.Dealloc(p), "free 0x%X", p)
}

func requireInvariants(t *testing.T, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}
