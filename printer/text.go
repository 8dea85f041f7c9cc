package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/allocsim/disk/bitmap"
	"github.com/joshuapare/allocsim/disk/linked"
	"github.com/joshuapare/allocsim/freelist"
)

// printFreeListText prints "Memory Map: [USED | Addr:0 | Size:20] -> ... END".
func (p *Printer) printFreeListText(a *freelist.Allocator) error {
	fmt.Fprintf(p.writer, "Memory Map: %s\n", a.String())

	if p.opts.ShowStats {
		s := a.Stats()
		fmt.Fprintf(p.writer, "  Blocks: %d, Free: %d/%d, Largest free: %d, Cursor: %d\n",
			a.Len(), a.FreeUnits(), a.Total(), a.LargestFree(), a.Cursor())
		fmt.Fprintf(p.writer, "  Allocs: %d (%d failed), Frees: %d (%d missed), Splits: %d, Merges: %d\n",
			s.AllocCalls, s.AllocFailed, s.FreeCalls, s.FreeMissed, s.Splits, s.Merges)
	}

	return p.rule()
}

// printBitmapText prints "Current Disk Bitmap State:" followed by the bits.
func (p *Printer) printBitmapText(a *bitmap.Allocator) error {
	fmt.Fprintf(p.writer, "Current Disk Bitmap State:\n%s\n", a.String())

	if p.opts.ShowStats {
		fmt.Fprintf(p.writer, "  Free: %d/%d\n", a.FreeUnits(), a.Capacity())
	}

	return p.rule()
}

// printLinkedText prints "Current Disk Linked List State:" followed by the unit map.
func (p *Printer) printLinkedText(a *linked.Allocator) error {
	fmt.Fprintf(p.writer, "Current Disk Linked List State:\n%s\n", a.String())

	if p.opts.ShowStats {
		fmt.Fprintf(p.writer, "  Free: %d/%d\n", a.FreeUnits(), a.Capacity())
	}

	return p.rule()
}

func (p *Printer) rule() error {
	if p.opts.RuleWidth <= 0 {
		return nil
	}
	_, err := fmt.Fprintln(p.writer, strings.Repeat("-", p.opts.RuleWidth))
	return err
}
