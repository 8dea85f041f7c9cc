package freelist

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := newAllocator(t, 100)

	require.Equal(t, detached([]Block{{Start: 0, Size: 100, Free: true}}), a.Blocks())
	require.Equal(t, 0, a.Cursor())
	require.Equal(t, 100, a.FreeUnits())
	require.Equal(t, 100, a.LargestFree())
	assertInvariants(t, a)
}

func TestNew_RejectsNonPositiveTotal(t *testing.T) {
	for _, total := range []int{0, -1} {
		a, err := New(total)
		require.ErrorIs(t, err, ErrInvalidSize)
		require.Nil(t, a)
	}
}

// TestBestFit_PicksSmallestQualifying covers holes {30, 10, 50} with a request of 8.
func TestBestFit_PicksSmallestQualifying(t *testing.T) {
	a := fragmented(t)

	mustAlloc(t, a, BestFit, 8, 32)

	blocks := a.Blocks()
	require.Equal(t, Block{Start: 32, Size: 8}, blocks[3])
	require.Equal(t, Block{Start: 40, Size: 2, Free: true}, blocks[4])
}

// TestWorstFit_PicksLargestQualifying covers holes {30, 10, 50} with a request of 8.
func TestWorstFit_PicksLargestQualifying(t *testing.T) {
	a := fragmented(t)

	mustAlloc(t, a, WorstFit, 8, 43)

	blocks := a.Blocks()
	require.Equal(t, Block{Start: 43, Size: 8}, blocks[5])
	require.Equal(t, Block{Start: 51, Size: 42, Free: true}, blocks[6])
}

func TestBestFit_SkipsTooSmallHoles(t *testing.T) {
	a := fragmented(t)

	// 10-hole is too small, 30-hole is the tightest remaining fit.
	mustAlloc(t, a, BestFit, 11, 1)
}

func TestScanPolicies_TiesGoToFirstBlock(t *testing.T) {
	for _, policy := range []Policy{BestFit, WorstFit} {
		t.Run(policy.String(), func(t *testing.T) {
			// [F 0,10][U 10,5][F 15,10][U 25,5]
			a := newAllocator(t, 30)
			mustAlloc(t, a, BestFit, 10, 0)
			mustAlloc(t, a, BestFit, 5, 10)
			mustAlloc(t, a, BestFit, 10, 15)
			mustAlloc(t, a, BestFit, 5, 25)
			mustFree(t, a, 0, 10)
			mustFree(t, a, 15, 10)

			mustAlloc(t, a, policy, 4, 0)
		})
	}
}

// TestBestFit_Walkthrough replays the best-fit walkthrough: a 10-unit hole
// in the middle absorbs a 9-unit request.
func TestBestFit_Walkthrough(t *testing.T) {
	a := newAllocator(t, 100)
	mustAlloc(t, a, BestFit, 20, 0)
	mustAlloc(t, a, BestFit, 10, 20)
	mustAlloc(t, a, BestFit, 30, 30)
	mustFree(t, a, 20, 10)

	mustAlloc(t, a, BestFit, 9, 20)
	require.Equal(t,
		"[USED | Addr:0 | Size:20] -> [USED | Addr:20 | Size:9] -> [FREE | Addr:29 | Size:1] -> "+
			"[USED | Addr:30 | Size:30] -> [FREE | Addr:60 | Size:40] -> END",
		a.String())
}

// TestWorstFit_Walkthrough replays the worst-fit walkthrough: a 20-hole at the
// front loses to the 80-hole behind it.
func TestWorstFit_Walkthrough(t *testing.T) {
	a := newAllocator(t, 100)
	mustAlloc(t, a, WorstFit, 20, 0)
	mustFree(t, a, 0, 20)

	// Freeing the only used block coalesces back to one hole, so the
	// request lands at the front.
	require.Equal(t, detached([]Block{{Start: 0, Size: 100, Free: true}}), a.Blocks())
	mustAlloc(t, a, WorstFit, 15, 0)
}

// TestNextFit_ResumesFromCursor: allocate 20 then 30, free the first, and a
// 10-unit request lands after the 30 block rather than in the freed hole.
func TestNextFit_ResumesFromCursor(t *testing.T) {
	a := newAllocator(t, 100)
	mustAlloc(t, a, NextFit, 20, 0)
	mustAlloc(t, a, NextFit, 30, 20)
	require.Equal(t, 20, a.Cursor(), "cursor rests on the consumed block")

	mustFree(t, a, 0, 20)
	mustAlloc(t, a, NextFit, 10, 50)

	require.Equal(t, detached([]Block{
		{Start: 0, Size: 20, Free: true},
		{Start: 20, Size: 30},
		{Start: 50, Size: 10},
		{Start: 60, Size: 40, Free: true},
	}), a.Blocks())
	require.Equal(t, 50, a.Cursor())
}

func TestNextFit_WrapsToHead(t *testing.T) {
	a := newAllocator(t, 100)
	mustAlloc(t, a, NextFit, 60, 0)
	mustAlloc(t, a, NextFit, 40, 60) // exact fit, no remainder
	require.Equal(t, 60, a.Cursor())

	mustFree(t, a, 0, 60)
	mustAlloc(t, a, NextFit, 30, 0)
	require.Equal(t, 0, a.Cursor())
}

func TestNextFit_ExactFitKeepsCursorOnConsumedBlock(t *testing.T) {
	a := newAllocator(t, 50)
	mustAlloc(t, a, NextFit, 50, 0)

	require.Equal(t, 1, a.Len())
	require.Equal(t, 0, a.Cursor())
	require.Equal(t, 0, a.FreeUnits())
}

func TestNextFit_FullCircleFails(t *testing.T) {
	a := newAllocator(t, 40)
	mustAlloc(t, a, NextFit, 10, 0)
	mustAlloc(t, a, NextFit, 10, 10)
	mustAlloc(t, a, NextFit, 10, 20)
	mustFree(t, a, 10, 10)

	before := a.Blocks()
	cursor := a.Cursor()

	_, err := a.AllocateNextFit(11)
	require.ErrorIs(t, err, ErrOutOfSpace)
	require.Equal(t, before, a.Blocks())
	require.Equal(t, cursor, a.Cursor())
}

func TestNextFit_SingleUsedBlockFails(t *testing.T) {
	a := newAllocator(t, 10)
	mustAlloc(t, a, NextFit, 10, 0)

	_, err := a.AllocateNextFit(1)
	require.ErrorIs(t, err, ErrOutOfSpace)
}

// TestNextFit_CursorFollowsMerge parks the cursor on a remainder block, then
// frees its predecessor so the remainder is absorbed by coalescing.
func TestNextFit_CursorFollowsMerge(t *testing.T) {
	a := newAllocator(t, 100)
	mustAlloc(t, a, BestFit, 20, 0)
	require.Equal(t, 20, a.Cursor(), "split moves cursor to the remainder")

	mustFree(t, a, 0, 20)
	require.Equal(t, 1, a.Len())
	require.Equal(t, 0, a.Cursor(), "absorbed block hands cursor to survivor")

	mustAlloc(t, a, NextFit, 10, 0)
}

func TestSplit_ExactFitCreatesNoRemainder(t *testing.T) {
	a := newAllocator(t, 50)
	mustAlloc(t, a, BestFit, 50, 0)

	require.Equal(t, detached([]Block{{Start: 0, Size: 50}}), a.Blocks())
	require.Equal(t, 0, a.Stats().Splits)
}

func TestBlocks_SnapshotIsUnlinked(t *testing.T) {
	a := fragmented(t)
	for i, b := range a.Blocks() {
		require.Equal(t, noSlot, b.next, "block %d", i)
	}
}

func TestSplit_RecyclesReleasedSlots(t *testing.T) {
	a := newAllocator(t, 100)
	for i := 0; i < 5; i++ {
		mustAlloc(t, a, BestFit, 10, i*10)
	}
	arena := len(a.blocks)

	for i := 0; i < 5; i++ {
		mustFree(t, a, i*10, 10)
	}
	require.Equal(t, 1, a.Len())

	for i := 0; i < 5; i++ {
		mustAlloc(t, a, BestFit, 10, i*10)
	}
	require.Equal(t, arena, len(a.blocks), "arena should not grow when slots are recycled")
}

// TestCoalesce_ThreeAdjacentBlocks frees the middle of three used blocks last;
// that single Free collapses all three into one chain node.
func TestCoalesce_ThreeAdjacentBlocks(t *testing.T) {
	a := newAllocator(t, 100)
	for _, step := range []struct{ size, addr int }{
		{5, 0}, {10, 5}, {20, 15}, {30, 35}, {35, 65},
	} {
		mustAlloc(t, a, BestFit, step.size, step.addr)
	}

	mustFree(t, a, 5, 10)
	mustFree(t, a, 35, 30)
	require.Equal(t, 5, a.Len(), "isolated frees do not merge")
	mergesBefore := a.Stats().Merges

	mustFree(t, a, 15, 20)

	require.Equal(t, detached([]Block{
		{Start: 0, Size: 5},
		{Start: 5, Size: 60, Free: true},
		{Start: 65, Size: 35},
	}), a.Blocks())
	require.Equal(t, 2, a.Stats().Merges-mergesBefore)
}

func TestCoalesce_NeverCrossesUsedBlock(t *testing.T) {
	a := newAllocator(t, 30)
	mustAlloc(t, a, BestFit, 10, 0)
	mustAlloc(t, a, BestFit, 10, 10)
	mustAlloc(t, a, BestFit, 10, 20)

	mustFree(t, a, 0, 10)
	mustFree(t, a, 20, 10)

	require.Equal(t, detached([]Block{
		{Start: 0, Size: 10, Free: true},
		{Start: 10, Size: 10},
		{Start: 20, Size: 10, Free: true},
	}), a.Blocks())
}

func TestRoundTrip_RestoresSingleBlock(t *testing.T) {
	for _, policy := range Policies() {
		t.Run(policy.String(), func(t *testing.T) {
			a := newAllocator(t, 64)
			mustAlloc(t, a, policy, 24, 0)
			mustFree(t, a, 0, 24)
			require.Equal(t, detached([]Block{{Start: 0, Size: 64, Free: true}}), a.Blocks())
		})
	}
}

func TestFree_AddressNotFound(t *testing.T) {
	a := newAllocator(t, 100)
	mustAlloc(t, a, BestFit, 20, 0)
	before := a.Blocks()

	for _, addr := range []int{5, 100, -1} {
		err := a.Free(addr, 1)
		require.ErrorIs(t, err, ErrAddressNotFound, "addr %d", addr)
	}
	require.Equal(t, before, a.Blocks(), "failed Free must not mutate the chain")
	require.Equal(t, 3, a.Stats().FreeMissed)
}

func TestFree_SizeIsAdvisory(t *testing.T) {
	var logs bytes.Buffer
	a, err := New(100, WithLogger(slog.New(slog.NewTextHandler(&logs,
		&slog.HandlerOptions{Level: slog.LevelDebug}))))
	require.NoError(t, err)

	mustAlloc(t, a, BestFit, 20, 0)
	mustFree(t, a, 0, 3) // wrong size still frees the whole block

	require.Equal(t, detached([]Block{{Start: 0, Size: 100, Free: true}}), a.Blocks())
	assert.Contains(t, logs.String(), "advisory size differs")
}

func TestFree_AlreadyFreeBlockIsHarmless(t *testing.T) {
	a := newAllocator(t, 100)
	mustFree(t, a, 0, 100)
	require.Equal(t, detached([]Block{{Start: 0, Size: 100, Free: true}}), a.Blocks())
}

// TestFailure_NoOp snapshots state around allocations larger than the free space.
func TestFailure_NoOp(t *testing.T) {
	for _, policy := range Policies() {
		t.Run(policy.String(), func(t *testing.T) {
			a := fragmented(t)
			before := a.Blocks()
			cursor := a.Cursor()
			stats := a.Stats()

			_, err := a.Allocate(policy, a.FreeUnits()+1)
			require.ErrorIs(t, err, ErrOutOfSpace)

			require.Equal(t, before, a.Blocks())
			require.Equal(t, cursor, a.Cursor())
			require.Equal(t, stats.AllocFailed+1, a.Stats().AllocFailed)
		})
	}
}

func TestAllocate_RejectsNonPositiveSize(t *testing.T) {
	a := newAllocator(t, 10)
	for _, policy := range Policies() {
		for _, size := range []int{0, -5} {
			_, err := a.Allocate(policy, size)
			require.ErrorIs(t, err, ErrInvalidSize, "%s(%d)", policy, size)
		}
	}
	require.Equal(t, detached([]Block{{Start: 0, Size: 10, Free: true}}), a.Blocks())
}

func TestAllocate_UnknownPolicy(t *testing.T) {
	a := newAllocator(t, 10)
	_, err := a.Allocate(Policy(99), 1)
	require.ErrorIs(t, err, ErrUnknownPolicy)
	require.Contains(t, err.Error(), "policy(99)")
}

func TestOutOfSpace_ReportsLargestHole(t *testing.T) {
	a := fragmented(t)
	_, err := a.AllocateBestFit(51)
	require.True(t, errors.Is(err, ErrOutOfSpace))
	require.Contains(t, err.Error(), "largest free 50")
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"best-fit", BestFit, false},
		{"BestFit", BestFit, false},
		{"worst", WorstFit, false},
		{"worst_fit", WorstFit, false},
		{" next fit ", NextFit, false},
		{"first-fit", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownPolicy)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_StringRoundTrips(t *testing.T) {
	for _, p := range Policies() {
		got, err := ParsePolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
}

func TestStats_Counts(t *testing.T) {
	a := newAllocator(t, 30)
	mustAlloc(t, a, BestFit, 10, 0)
	mustAlloc(t, a, WorstFit, 10, 10)
	_, err := a.AllocateNextFit(20)
	require.ErrorIs(t, err, ErrOutOfSpace)
	mustFree(t, a, 0, 10)
	mustFree(t, a, 10, 10)

	require.Equal(t, Stats{
		AllocCalls:  3,
		AllocFailed: 1,
		FreeCalls:   2,
		Splits:      2,
		Merges:      2,
	}, a.Stats())
}
