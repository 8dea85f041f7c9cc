package freelist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newAllocator creates an allocator of the given size or fails the test.
func newAllocator(t testing.TB, total int) *Allocator {
	t.Helper()
	a, err := New(total)
	require.NoError(t, err)
	return a
}

// mustAlloc allocates under policy and asserts the returned address.
func mustAlloc(t testing.TB, a *Allocator, policy Policy, size, wantAddr int) {
	t.Helper()
	addr, err := a.Allocate(policy, size)
	require.NoError(t, err, "%s(%d)", policy, size)
	require.Equal(t, wantAddr, addr, "%s(%d) address", policy, size)
	assertInvariants(t, a)
}

// mustFree frees addr and re-checks the chain.
func mustFree(t testing.TB, a *Allocator, addr, size int) {
	t.Helper()
	require.NoError(t, a.Free(addr, size), "Free(%d)", addr)
	assertInvariants(t, a)
}

// assertInvariants checks that the chain partitions [0, total), that no two
// neighbours are both free, and that the cursor names a live block.
func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()

	blocks := a.Blocks()
	require.NotEmpty(t, blocks, "chain must never be empty")
	require.Len(t, blocks, a.Len(), "Len disagrees with chain walk")

	next := 0
	sum := 0
	cursorLive := false
	for i, b := range blocks {
		require.Positive(t, b.Size, "block %d has non-positive size", i)
		require.Equal(t, next, b.Start, "block %d not contiguous", i)
		if i > 0 {
			require.False(t, b.Free && blocks[i-1].Free,
				"blocks %d and %d both free after coalescing", i-1, i)
		}
		if b.Start == a.Cursor() {
			cursorLive = true
		}
		next = b.End()
		sum += b.Size
	}
	require.Equal(t, a.Total(), sum, "block sizes must sum to total")
	require.Equal(t, a.Total(), next, "chain must end at total")
	require.True(t, cursorLive, "cursor %d does not name a live block", a.Cursor())
}

// fragmented builds the layout
//
//	[U 0,1][F 1,30][U 31,1][F 32,10][U 42,1][F 43,50]
//
// so the free holes are 30, 10 and 50 in chain order.
func fragmented(t testing.TB) *Allocator {
	t.Helper()
	a := newAllocator(t, 93)
	for _, step := range []struct{ size, addr int }{
		{1, 0}, {30, 1}, {1, 31}, {10, 32}, {1, 42},
	} {
		mustAlloc(t, a, BestFit, step.size, step.addr)
	}
	mustFree(t, a, 1, 30)
	mustFree(t, a, 32, 10)

	require.Equal(t, []Block{
		{Start: 0, Size: 1},
		{Start: 1, Size: 30, Free: true},
		{Start: 31, Size: 1},
		{Start: 32, Size: 10, Free: true},
		{Start: 42, Size: 1},
		{Start: 43, Size: 50, Free: true},
	}, a.Blocks())
	return a
}

// detached marks expected blocks the way Blocks snapshots them.
func detached(blocks []Block) []Block {
	for i := range blocks {
		blocks[i].next = noSlot
	}
	return blocks
}
