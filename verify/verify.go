// Package verify provides structural checks for free-list chains.
// These helpers back the allocator tests and the CLI --check flag.
package verify

import (
	"fmt"

	"github.com/joshuapare/allocsim/freelist"
)

// ValidationError describes the first invariant a chain violates.
type ValidationError struct {
	Type    string
	Message string
	Index   int // chain position where the error occurred (-1 if N/A)
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s at block %d: %s", e.Type, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Allocator validates the live chain of a and checks that the next-fit
// cursor names one of its blocks.
func Allocator(a *freelist.Allocator) error {
	blocks := a.Blocks()
	if err := AllInvariants(blocks, a.Total()); err != nil {
		return err
	}
	return Cursor(blocks, a.Cursor())
}

// AllInvariants validates all chain invariants in one call.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(blocks []freelist.Block, total int) error {
	if err := Partition(blocks, total); err != nil {
		return err
	}
	if err := Coalesced(blocks); err != nil {
		return err
	}
	return nil
}

// Partition checks that blocks tile [0, total) in address order with no gaps
// or overlaps and only positive sizes.
func Partition(blocks []freelist.Block, total int) error {
	if len(blocks) == 0 {
		return &ValidationError{
			Type:    "Partition",
			Message: "chain is empty",
			Index:   -1,
		}
	}

	next := 0
	sum := 0
	for i, b := range blocks {
		if b.Size <= 0 {
			return &ValidationError{
				Type:    "Partition",
				Message: fmt.Sprintf("non-positive size %d", b.Size),
				Index:   i,
			}
		}

		if b.Start != next {
			kind := "gap"
			if b.Start < next {
				kind = "overlap"
			}
			return &ValidationError{
				Type:    "Partition",
				Message: fmt.Sprintf("%s: block starts at %d, expected %d", kind, b.Start, next),
				Index:   i,
				Details: map[string]interface{}{
					"start":    b.Start,
					"expected": next,
				},
			}
		}

		next = b.End()
		sum += b.Size
	}

	if sum != total || next != total {
		return &ValidationError{
			Type:    "Partition",
			Message: fmt.Sprintf("blocks cover %d units, expected %d", sum, total),
			Index:   -1,
			Details: map[string]interface{}{
				"covered": sum,
				"total":   total,
			},
		}
	}

	return nil
}

// Coalesced checks that no two neighbouring blocks are both free.
func Coalesced(blocks []freelist.Block) error {
	for i := 1; i < len(blocks); i++ {
		if blocks[i-1].Free && blocks[i].Free {
			return &ValidationError{
				Type: "Coalesced",
				Message: fmt.Sprintf("adjacent free blocks at %d and %d",
					blocks[i-1].Start, blocks[i].Start),
				Index: i,
			}
		}
	}
	return nil
}

// Cursor checks that cursor is the start address of some block.
func Cursor(blocks []freelist.Block, cursor int) error {
	for _, b := range blocks {
		if b.Start == cursor {
			return nil
		}
	}
	return &ValidationError{
		Type:    "Cursor",
		Message: fmt.Sprintf("cursor %d does not name a block", cursor),
		Index:   -1,
	}
}
