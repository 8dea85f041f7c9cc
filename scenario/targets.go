package scenario

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/allocsim/disk/bitmap"
	"github.com/joshuapare/allocsim/disk/linked"
	"github.com/joshuapare/allocsim/freelist"
	"github.com/joshuapare/allocsim/printer"
	"github.com/joshuapare/allocsim/verify"
)

func newTarget(sc *Scenario, log *slog.Logger) (target, error) {
	switch sc.Allocator {
	case KindFreeList:
		a, err := freelist.New(sc.Capacity, freelist.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &freeListTarget{sc: sc, a: a}, nil
	case KindBitmap:
		a, err := bitmap.New(sc.Capacity, bitmap.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &bitmapTarget{a: a}, nil
	case KindLinked:
		a, err := linked.New(sc.Capacity, linked.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return &linkedTarget{a: a}, nil
	}
	return nil, fmt.Errorf("%w: unknown allocator %q", ErrInvalidScenario, sc.Allocator)
}

func failed(err error) (Result, string) {
	return Result{Outcome: OutcomeOf(err), Message: err.Error()}, "FAIL: " + err.Error()
}

type freeListTarget struct {
	sc *Scenario
	a  *freelist.Allocator
}

func (t *freeListTarget) apply(st Step) (Result, string) {
	switch st.Op {
	case OpAlloc:
		policy, err := t.sc.policyFor(st)
		if err != nil {
			return failed(err)
		}
		addr, err := t.a.Allocate(policy, st.Size)
		if err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: addr},
			fmt.Sprintf("SUCCESS: Allocated %d units at Address %d (%s)", st.Size, addr, policy)

	case OpFree, OpDealloc:
		if err := t.a.Free(st.Addr, st.Size); err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: st.Addr},
			fmt.Sprintf("ACTION: Freed block at Address %d", st.Addr)
	}
	return failed(fmt.Errorf("%w: op %q on %s", ErrInvalidScenario, st.Op, KindFreeList))
}

func (t *freeListTarget) status(p *printer.Printer) error { return p.PrintFreeList(t.a) }

func (t *freeListTarget) check() error { return verify.Allocator(t.a) }

type bitmapTarget struct {
	a *bitmap.Allocator
}

func (t *bitmapTarget) apply(st Step) (Result, string) {
	switch st.Op {
	case OpAlloc:
		start, err := t.a.Allocate(st.Tag, st.Size)
		if err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: start},
			fmt.Sprintf("SUCCESS: File '%s' allocated. Start: %d, Length: %d", st.Tag, start, st.Size)

	case OpFree, OpDealloc:
		if err := t.a.Deallocate(st.Addr, st.Size); err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: st.Addr},
			fmt.Sprintf("ACTION: Deleted file at index %d with length %d", st.Addr, st.Size)
	}
	return failed(fmt.Errorf("%w: op %q on %s", ErrInvalidScenario, st.Op, KindBitmap))
}

func (t *bitmapTarget) status(p *printer.Printer) error { return p.PrintBitmap(t.a) }

func (t *bitmapTarget) check() error { return nil }

type linkedTarget struct {
	a *linked.Allocator
}

func (t *linkedTarget) apply(st Step) (Result, string) {
	switch st.Op {
	case OpAlloc:
		head, err := t.a.Allocate(st.Tag, st.Size)
		if err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: head},
			fmt.Sprintf("SUCCESS: File '%s' allocated. Start Node: %d", st.Tag, head)

	case OpFree, OpDealloc:
		if err := t.a.Deallocate(st.Addr); err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: st.Addr},
			fmt.Sprintf("ACTION: Deleted file starting at node %d", st.Addr)

	case OpChain:
		chain, err := t.a.Chain(st.Addr)
		if err != nil {
			return failed(err)
		}
		return Result{OK: true, Addr: st.Addr, Chain: chain},
			fmt.Sprintf("CHAIN: %d units from node %d", len(chain), st.Addr)
	}
	return failed(fmt.Errorf("%w: op %q on %s", ErrInvalidScenario, st.Op, KindLinked))
}

func (t *linkedTarget) status(p *printer.Printer) error { return p.PrintLinked(t.a) }

func (t *linkedTarget) check() error { return verify.Linked(t.a.Nodes()) }
