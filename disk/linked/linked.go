// Package linked implements linked-block disk allocation.
//
// Every unit of the disk is a node carrying an occupancy flag, the tag of the
// owning file and the index of the file's next unit. A file's units are
// claimed in index order wherever free units happen to be, so a chain may be
// scattered across the disk. Deallocation follows the chain from its head.
//
// Allocator instances are not thread-safe.
package linked

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/joshuapare/allocsim/internal/logger"
)

// End terminates a file chain.
const End = -1

var (
	// ErrNotEnoughSpace indicates fewer free units than requested exist on the disk.
	ErrNotEnoughSpace = errors.New("linked: not enough free units")

	// ErrIndexOutOfRange indicates a unit index outside the disk.
	ErrIndexOutOfRange = errors.New("linked: index out of range")

	// ErrNotAllocated indicates a chain head that is not an occupied unit.
	ErrNotAllocated = errors.New("linked: unit not allocated")

	// ErrNotChainHead indicates an occupied unit that another unit links to.
	ErrNotChainHead = errors.New("linked: unit is not a chain head")

	// ErrInvalidTag indicates an empty file tag.
	ErrInvalidTag = errors.New("linked: file tag must not be empty")

	// ErrInvalidSize indicates a non-positive capacity or unit count.
	ErrInvalidSize = errors.New("linked: size must be positive")
)

// Node is one disk unit.
type Node struct {
	Occupied bool
	Next     int    // index of the file's next unit, End for the last one
	Tag      string // owning file, empty when free
}

// Allocator is a fixed-capacity linked-block disk.
type Allocator struct {
	nodes []Node
	log   *slog.Logger
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

// New creates a disk of capacity free units.
func New(capacity int, opts ...Option) (*Allocator, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidSize, capacity)
	}
	a := &Allocator{
		nodes: make([]Node, capacity),
		log:   logger.L,
	}
	for i := range a.nodes {
		a.nodes[i].Next = End
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Allocate claims units free units for the file tag and returns the index of
// the chain head. Free space is counted first, so a short disk fails before
// any node is touched. Units are claimed in index order and linked in the
// order they were claimed.
func (a *Allocator) Allocate(tag string, units int) (int, error) {
	if units <= 0 {
		return 0, fmt.Errorf("%w: request %d", ErrInvalidSize, units)
	}
	tag = norm.NFC.String(tag)
	if tag == "" {
		return 0, ErrInvalidTag
	}

	if free := a.FreeUnits(); free < units {
		return 0, fmt.Errorf("%w: %q needs %d units, %d free", ErrNotEnoughSpace, tag, units, free)
	}

	head, prev, claimed := End, End, 0
	for i := range a.nodes {
		if claimed == units {
			break
		}
		if a.nodes[i].Occupied {
			continue
		}

		a.nodes[i].Occupied = true
		a.nodes[i].Tag = tag
		if head == End {
			head = i
		}
		if prev != End {
			a.nodes[prev].Next = i
		}
		prev = i
		claimed++
	}
	a.nodes[prev].Next = End

	a.log.Debug("linked: allocated", "tag", tag, "head", head, "units", units)
	return head, nil
}

// Deallocate releases every unit of the chain starting at head. head must be
// the first unit of a file; a unit some other unit links to is rejected. The
// walk stops at the first unit not owned by the head's file.
func (a *Allocator) Deallocate(head int) error {
	if err := a.checkHead(head); err != nil {
		return err
	}

	tag := a.nodes[head].Tag
	released := 0
	for cur := head; cur != End; {
		n := a.nodes[cur]
		if !n.Occupied || n.Tag != tag {
			a.log.Warn("linked: chain left its file", "tag", tag, "head", head, "unit", cur)
			break
		}
		a.nodes[cur] = Node{Next: End}
		released++
		cur = n.Next
	}

	a.log.Debug("linked: deallocated", "tag", tag, "head", head, "units", released)
	return nil
}

// Chain returns the unit indices of the file starting at head, in chain order.
func (a *Allocator) Chain(head int) ([]int, error) {
	if err := a.checkIndex(head); err != nil {
		return nil, err
	}
	if !a.nodes[head].Occupied {
		return nil, fmt.Errorf("%w: %d", ErrNotAllocated, head)
	}

	var chain []int
	for cur := head; cur != End; cur = a.nodes[cur].Next {
		chain = append(chain, cur)
	}
	return chain, nil
}

func (a *Allocator) checkIndex(i int) error {
	if i < 0 || i >= len(a.nodes) {
		return fmt.Errorf("%w: %d (capacity %d)", ErrIndexOutOfRange, i, len(a.nodes))
	}
	return nil
}

// checkHead accepts only an occupied unit that no other occupied unit links to.
func (a *Allocator) checkHead(head int) error {
	if err := a.checkIndex(head); err != nil {
		return err
	}
	if !a.nodes[head].Occupied {
		return fmt.Errorf("%w: %d", ErrNotAllocated, head)
	}
	for i, n := range a.nodes {
		if n.Occupied && n.Next == head {
			return fmt.Errorf("%w: %d is linked from %d", ErrNotChainHead, head, i)
		}
	}
	return nil
}

// Capacity returns the number of units on the disk.
func (a *Allocator) Capacity() int { return len(a.nodes) }

// FreeUnits returns the number of unoccupied units.
func (a *Allocator) FreeUnits() int {
	n := 0
	for _, node := range a.nodes {
		if !node.Occupied {
			n++
		}
	}
	return n
}

// Nodes returns a copy of every unit in index order.
func (a *Allocator) Nodes() []Node {
	out := make([]Node, len(a.nodes))
	copy(out, a.nodes)
	return out
}

// String renders the disk with the first letter of each occupying file and
// '.' for free units, e.g. "[A A A B B . .]".
func (a *Allocator) String() string {
	cells := make([]string, len(a.nodes))
	for i, node := range a.nodes {
		if !node.Occupied {
			cells[i] = "."
			continue
		}
		r, _ := utf8.DecodeRuneInString(node.Tag)
		cells[i] = string(r)
	}
	return "[" + strings.Join(cells, " ") + "]"
}

// FormatChain renders a chain as "0 -> 1 -> 2".
func FormatChain(chain []int) string {
	parts := make([]string, len(chain))
	for i, idx := range chain {
		parts[i] = fmt.Sprint(idx)
	}
	return strings.Join(parts, " -> ")
}
