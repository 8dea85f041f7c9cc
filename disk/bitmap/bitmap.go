// Package bitmap implements contiguous disk allocation over a per-unit
// occupancy bitmap.
//
// Allocation is first-fit: the earliest run of free units long enough for the
// request wins, even when a tighter run exists further on. The bitmap keeps no
// per-file metadata, so callers must remember the start and length they got
// back in order to deallocate.
//
// Allocator instances are not thread-safe.
package bitmap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/joshuapare/allocsim/internal/logger"
)

var (
	// ErrNoContiguousSpace indicates that no run of free units is long enough.
	ErrNoContiguousSpace = errors.New("bitmap: not enough contiguous space")

	// ErrIndexOutOfRange indicates a deallocation touching indices outside the bitmap.
	ErrIndexOutOfRange = errors.New("bitmap: index out of range")

	// ErrInvalidSize indicates a non-positive capacity or unit count.
	ErrInvalidSize = errors.New("bitmap: size must be positive")
)

// Allocator is a fixed-capacity bitmap disk. A set bit marks a used unit.
type Allocator struct {
	bits     *bitset.BitSet
	capacity int
	log      *slog.Logger
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

// New creates a bitmap of capacity free units.
func New(capacity int, opts ...Option) (*Allocator, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidSize, capacity)
	}
	a := &Allocator{
		bits:     bitset.New(uint(capacity)),
		capacity: capacity,
		log:      logger.L,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Allocate marks the first run of units consecutive free units as used and
// returns its start index. The tag only appears in logs; the bitmap does not
// remember which file owns a run.
func (a *Allocator) Allocate(tag string, units int) (int, error) {
	if units <= 0 {
		return 0, fmt.Errorf("%w: request %d", ErrInvalidSize, units)
	}

	run, start := 0, -1
	for i := 0; i < a.capacity; i++ {
		if a.bits.Test(uint(i)) {
			run, start = 0, -1
			continue
		}
		if run == 0 {
			start = i
		}
		run++

		if run == units {
			for j := start; j < start+units; j++ {
				a.bits.Set(uint(j))
			}
			a.log.Debug("bitmap: allocated", "tag", tag, "start", start, "length", units)
			return start, nil
		}
	}

	a.log.Debug("bitmap: no contiguous run", "tag", tag, "length", units)
	return 0, fmt.Errorf("%w: %q needs %d units", ErrNoContiguousSpace, tag, units)
}

// Deallocate clears units [start, start+length). Indices past the end of the
// bitmap are skipped with a single warning while in-range units are still
// cleared; the call then reports how many indices it skipped via
// ErrIndexOutOfRange. A negative start is rejected before anything is cleared.
func (a *Allocator) Deallocate(start, length int) error {
	if start < 0 {
		return fmt.Errorf("%w: start %d", ErrIndexOutOfRange, start)
	}
	if length <= 0 {
		return fmt.Errorf("%w: length %d", ErrInvalidSize, length)
	}

	// compared against the remaining room so start+length never overflows
	inRange := 0
	if start < a.capacity {
		inRange = min(length, a.capacity-start)
	}
	for i := start; i < start+inRange; i++ {
		a.bits.Clear(uint(i))
	}

	if skipped := length - inRange; skipped > 0 {
		a.log.Warn("bitmap: indices out of bounds",
			"start", start,
			"length", length,
			"skipped", skipped,
			"capacity", a.capacity,
		)
		return fmt.Errorf("%w: skipped %d of %d indices past capacity %d",
			ErrIndexOutOfRange, skipped, length, a.capacity)
	}
	return nil
}

// Capacity returns the number of units in the bitmap.
func (a *Allocator) Capacity() int { return a.capacity }

// Used reports whether unit i is allocated. Out-of-range indices report false.
func (a *Allocator) Used(i int) bool {
	if i < 0 || i >= a.capacity {
		return false
	}
	return a.bits.Test(uint(i))
}

// FreeUnits returns the number of clear bits.
func (a *Allocator) FreeUnits() int {
	return a.capacity - int(a.bits.Count())
}

// Bits returns a copy of the occupancy map, true meaning used.
func (a *Allocator) Bits() []bool {
	out := make([]bool, a.capacity)
	for i := range out {
		out[i] = a.bits.Test(uint(i))
	}
	return out
}

// String renders the bitmap as 0/1 digits, e.g. "[11111000]".
func (a *Allocator) String() string {
	var sb strings.Builder
	sb.Grow(a.capacity + 2)
	sb.WriteByte('[')
	for i := 0; i < a.capacity; i++ {
		if a.bits.Test(uint(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
