package freelist

import (
	"fmt"
	"log/slog"
	"strings"
)

// Policy selects which qualifying free block an allocation consumes.
type Policy uint8

const (
	// BestFit picks the smallest free block that can hold the request.
	BestFit Policy = iota + 1
	// WorstFit picks the largest free block that can hold the request.
	WorstFit
	// NextFit picks the first fitting block at or after the cursor, wrapping once.
	NextFit
)

// String returns the hyphenated policy name used by reports and scenarios.
func (p Policy) String() string {
	switch p {
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	case NextFit:
		return "next-fit"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy accepts "best-fit", "best", "bestfit" and the same spellings
// for worst and next fit. Matching is case-insensitive.
func ParsePolicy(name string) (Policy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)
	switch n {
	case "best", "bestfit":
		return BestFit, nil
	case "worst", "worstfit":
		return WorstFit, nil
	case "next", "nextfit":
		return NextFit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Policies lists every supported policy in declaration order.
func Policies() []Policy {
	return []Policy{BestFit, WorstFit, NextFit}
}

// Block is one extent of the address space. Start and Size are in abstract units.
type Block struct {
	Start int
	Size  int
	Free  bool

	next int // arena slot of the following block, noSlot at the tail
}

// End returns the first address past the block.
func (b Block) End() int { return b.Start + b.Size }

// String renders the block the way the memory map prints it.
func (b Block) String() string {
	status := "USED"
	if b.Free {
		status = "FREE"
	}
	return fmt.Sprintf("[%s | Addr:%d | Size:%d]", status, b.Start, b.Size)
}

// Stats holds allocator counters for tests and reports.
//
// Every Allocate* and Free call bumps its call counter before validating, so
// rejected requests are counted too. Splits move only when an allocation
// leaves a remainder; an exact fit consumes the block without one. Merges
// count pairs, so freeing a block between two free neighbours adds two.
type Stats struct {
	AllocCalls  int `json:"alloc_calls"`  // Allocate* calls, including failures
	AllocFailed int `json:"alloc_failed"` // Allocate* calls that returned ErrOutOfSpace
	FreeCalls   int `json:"free_calls"`   // Free calls, including misses
	FreeMissed  int `json:"free_missed"`  // Free calls that returned ErrAddressNotFound
	Splits      int `json:"splits"`       // Allocations that materialized a remainder block
	Merges      int `json:"merges"`       // Adjacent free pairs folded together
}

// Option configures an Allocator at construction.
type Option func(*Allocator)

// WithLogger routes allocator diagnostics to l instead of the process logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}
