// Package freelist implements a contiguous free-list memory manager with
// best-fit, worst-fit and next-fit placement.
//
// # Overview
//
// The allocator manages an abstract address space [0, total). It keeps an
// ordered chain of blocks that partitions the space: blocks are sorted by
// start address, contiguous, and together cover the whole range. A fresh
// allocator holds a single free block.
//
//	a, err := freelist.New(100)
//	if err != nil {
//	    return err
//	}
//
//	addr, err := a.AllocateBestFit(20) // addr == 0
//	if errors.Is(err, freelist.ErrOutOfSpace) {
//	    // chain unchanged
//	}
//
//	err = a.Free(addr, 20)
//
// # Placement Policies
//
//   - BestFit: smallest free block that fits, first one on ties
//   - WorstFit: largest free block that fits, first one on ties
//   - NextFit: first fitting block at or after the cursor, wrapping to the
//     head once; the cursor then rests on the consumed block
//
// # Splitting
//
// An allocation shrinks the chosen block to the request and marks it used.
// Any remainder becomes a new free block linked immediately after it. When the
// next-fit cursor was parked on the split block it moves to the remainder. An
// exact fit creates no remainder.
//
// # Freeing and Coalescing
//
// Free looks blocks up by start address only; the size argument is advisory.
// After marking the block free, one pass over the chain merges every run of
// adjacent free blocks into its first block, so no two neighbours are ever
// both free once Free returns. A block absorbed by a merge that held the
// cursor hands it to the block that absorbed it.
//
// # Failures
//
// ErrOutOfSpace and ErrAddressNotFound leave the chain untouched.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally.
package freelist
