package freelist

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshuapare/allocsim/internal/logger"
)

// noSlot terminates the chain and marks an unset slot reference.
const noSlot = -1

// Allocator is a contiguous free-list memory manager over [0, total).
//
// Blocks live in an arena indexed by slot; each block names its successor by
// slot, so splitting and coalescing never move existing blocks. Slots freed by
// coalescing are recycled. The next-fit cursor is a slot index and always
// names a live block.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	blocks []Block // arena, live and released slots
	spare  []int   // released slots available for reuse
	head   int
	cursor int
	total  int

	stats Stats
	log   *slog.Logger
}

// New creates an allocator whose chain is a single free block covering [0, total).
func New(total int, opts ...Option) (*Allocator, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total %d", ErrInvalidSize, total)
	}

	a := &Allocator{
		blocks: make([]Block, 1, 16),
		head:   0,
		cursor: 0,
		total:  total,
		log:    logger.L,
	}
	a.blocks[0] = Block{Start: 0, Size: total, Free: true, next: noSlot}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Allocate dispatches to the allocation routine for policy.
func (a *Allocator) Allocate(policy Policy, size int) (int, error) {
	switch policy {
	case BestFit:
		return a.AllocateBestFit(size)
	case WorstFit:
		return a.AllocateWorstFit(size)
	case NextFit:
		return a.AllocateNextFit(size)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownPolicy, policy)
	}
}

// AllocateBestFit scans the whole chain and consumes the smallest free block
// that holds size units. Ties go to the block earliest in the chain.
// It returns the start address of the allocation.
func (a *Allocator) AllocateBestFit(size int) (int, error) {
	return a.allocateScan(BestFit, size, func(cand, cur int) bool { return cand < cur })
}

// AllocateWorstFit scans the whole chain and consumes the largest free block
// that holds size units. Ties go to the block earliest in the chain.
func (a *Allocator) AllocateWorstFit(size int) (int, error) {
	return a.allocateScan(WorstFit, size, func(cand, cur int) bool { return cand > cur })
}

// allocateScan runs a full-chain search keeping the candidate for which
// better(candidate.Size, chosen.Size) holds. Strict comparisons keep the
// first block among equals.
func (a *Allocator) allocateScan(policy Policy, size int, better func(cand, cur int) bool) (int, error) {
	a.stats.AllocCalls++
	if size <= 0 {
		return 0, fmt.Errorf("%w: request %d", ErrInvalidSize, size)
	}

	chosen := noSlot
	for s := a.head; s != noSlot; s = a.blocks[s].next {
		b := &a.blocks[s]
		if !b.Free || b.Size < size {
			continue
		}
		if chosen == noSlot || better(b.Size, a.blocks[chosen].Size) {
			chosen = s
		}
	}

	if chosen == noSlot {
		return 0, a.outOfSpace(policy, size)
	}

	a.split(chosen, size)
	return a.blocks[chosen].Start, nil
}

// AllocateNextFit searches from the cursor block (inclusive) toward the tail,
// wraps to the head, and consumes the first free block that holds size units.
// A full circle without a fit fails. On success the cursor rests on the
// consumed block.
func (a *Allocator) AllocateNextFit(size int) (int, error) {
	a.stats.AllocCalls++
	if size <= 0 {
		return 0, fmt.Errorf("%w: request %d", ErrInvalidSize, size)
	}

	start := a.cursor
	cur := start
	for {
		b := a.blocks[cur]
		if b.Free && b.Size >= size {
			a.split(cur, size)
			a.cursor = cur
			return b.Start, nil
		}

		cur = b.next
		if cur == noSlot {
			cur = a.head
		}
		if cur == start {
			break
		}
	}

	return 0, a.outOfSpace(NextFit, size)
}

// split carves size units off the front of the free block at slot and marks
// them used. A positive remainder becomes a new free block linked right after
// it; the cursor follows the remainder when it was parked on the split block.
// Callers guarantee size <= block size.
func (a *Allocator) split(slot, size int) {
	remaining := a.blocks[slot].Size - size

	a.blocks[slot].Size = size
	a.blocks[slot].Free = false

	if remaining > 0 {
		rem := a.newSlot(Block{
			Start: a.blocks[slot].Start + size,
			Size:  remaining,
			Free:  true,
			next:  a.blocks[slot].next,
		})
		a.blocks[slot].next = rem
		a.stats.Splits++

		if a.cursor == slot {
			a.cursor = rem
		}
	}

	a.log.Debug("freelist: allocated",
		"addr", a.blocks[slot].Start,
		"size", size,
		"remainder", remaining,
	)
}

// Free marks the block starting at addr as free and coalesces adjacent free
// blocks across the whole chain. Lookup is by start address only: size is
// advisory and is not checked against the stored block, so a block can only
// be freed whole.
func (a *Allocator) Free(addr, size int) error {
	a.stats.FreeCalls++

	slot := noSlot
	for s := a.head; s != noSlot; s = a.blocks[s].next {
		if a.blocks[s].Start == addr {
			slot = s
			break
		}
	}
	if slot == noSlot {
		a.stats.FreeMissed++
		return fmt.Errorf("%w: %d", ErrAddressNotFound, addr)
	}

	if size != a.blocks[slot].Size {
		a.log.Debug("freelist: advisory size differs from block",
			"addr", addr,
			"given", size,
			"actual", a.blocks[slot].Size,
		)
	}

	a.blocks[slot].Free = true
	a.coalesce()
	return nil
}

// coalesce walks the chain from the head folding every free successor into a
// free block. The grown block is re-examined before advancing, so runs of any
// length collapse in one pass.
func (a *Allocator) coalesce() {
	m := a.head
	for m != noSlot && a.blocks[m].next != noSlot {
		n := a.blocks[m].next
		if !a.blocks[m].Free || !a.blocks[n].Free {
			m = n
			continue
		}

		a.blocks[m].Size += a.blocks[n].Size
		a.blocks[m].next = a.blocks[n].next
		if a.cursor == n {
			a.cursor = m
		}
		a.release(n)
		a.stats.Merges++

		a.log.Debug("freelist: merged",
			"addr", a.blocks[m].Start,
			"size", a.blocks[m].Size,
		)
	}
}

func (a *Allocator) newSlot(b Block) int {
	if n := len(a.spare); n > 0 {
		s := a.spare[n-1]
		a.spare = a.spare[:n-1]
		a.blocks[s] = b
		return s
	}
	a.blocks = append(a.blocks, b)
	return len(a.blocks) - 1
}

func (a *Allocator) release(s int) {
	a.blocks[s] = Block{next: noSlot}
	a.spare = append(a.spare, s)
}

func (a *Allocator) outOfSpace(policy Policy, size int) error {
	a.stats.AllocFailed++
	largest := a.LargestFree()
	a.log.Debug("freelist: allocation failed",
		"policy", policy.String(),
		"size", size,
		"largest_free", largest,
	)
	return fmt.Errorf("%w: %s request for %d units (largest free %d)",
		ErrOutOfSpace, policy, size, largest)
}

// Blocks returns the chain in address order. The snapshot is detached from
// the allocator.
func (a *Allocator) Blocks() []Block {
	out := make([]Block, 0, len(a.blocks)-len(a.spare))
	for s := a.head; s != noSlot; s = a.blocks[s].next {
		b := a.blocks[s]
		b.next = noSlot
		out = append(out, b)
	}
	return out
}

// Len returns the number of blocks in the chain.
func (a *Allocator) Len() int { return len(a.blocks) - len(a.spare) }

// Total returns the size of the managed address space.
func (a *Allocator) Total() int { return a.total }

// Cursor returns the start address of the block next-fit resumes from.
func (a *Allocator) Cursor() int { return a.blocks[a.cursor].Start }

// Stats returns a copy of the allocator counters.
func (a *Allocator) Stats() Stats { return a.stats }

// FreeUnits returns the total size of all free blocks.
func (a *Allocator) FreeUnits() int {
	n := 0
	for s := a.head; s != noSlot; s = a.blocks[s].next {
		if a.blocks[s].Free {
			n += a.blocks[s].Size
		}
	}
	return n
}

// LargestFree returns the size of the largest free block, or 0 when none is free.
func (a *Allocator) LargestFree() int {
	largest := 0
	for s := a.head; s != noSlot; s = a.blocks[s].next {
		if b := a.blocks[s]; b.Free && b.Size > largest {
			largest = b.Size
		}
	}
	return largest
}

// String renders the memory map:
//
//	[USED | Addr:0 | Size:20] -> [FREE | Addr:20 | Size:80] -> END
func (a *Allocator) String() string {
	var sb strings.Builder
	for s := a.head; s != noSlot; s = a.blocks[s].next {
		sb.WriteString(a.blocks[s].String())
		sb.WriteString(" -> ")
	}
	sb.WriteString("END")
	return sb.String()
}
