package printer

import (
	"fmt"
	"io"

	"github.com/joshuapare/allocsim/disk/bitmap"
	"github.com/joshuapare/allocsim/disk/linked"
	"github.com/joshuapare/allocsim/freelist"
)

const (
	DefaultRuleWidth = 50
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs the human-readable maps.
	FormatText Format = "text"

	// FormatJSON outputs one JSON document per report.
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// ShowStats appends allocator counters and free-space totals.
	// Default: false
	ShowStats bool

	// RuleWidth is the width of the separator drawn after each text report.
	// Set to 0 to omit it.
	// Default: 50
	RuleWidth int
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:    FormatText,
		ShowStats: false,
		RuleWidth: DefaultRuleWidth,
	}
}

// Printer renders allocator state reports.
type Printer struct {
	opts   Options
	writer io.Writer
}

// New creates a new Printer writing to w.
//
// Example:
//
//	a, _ := freelist.New(100)
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintFreeList(a)
func New(w io.Writer, opts Options) *Printer {
	return &Printer{
		writer: w,
		opts:   opts,
	}
}

// PrintFreeList prints the block chain of a free-list allocator.
func (p *Printer) PrintFreeList(a *freelist.Allocator) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printFreeListJSON(a)
	default:
		return p.printFreeListText(a)
	}
}

// PrintBitmap prints the occupancy bits of a bitmap disk.
func (p *Printer) PrintBitmap(a *bitmap.Allocator) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printBitmapJSON(a)
	default:
		return p.printBitmapText(a)
	}
}

// PrintLinked prints the unit map of a linked-block disk.
func (p *Printer) PrintLinked(a *linked.Allocator) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printLinkedJSON(a)
	default:
		return p.printLinkedText(a)
	}
}

// PrintChain prints the unit indices of one linked-block file.
func (p *Printer) PrintChain(head int, chain []int) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.encode(jsonChain{Head: head, Units: chain})
	default:
		_, err := fmt.Fprintf(p.writer, "File Chain: %s\n", linked.FormatChain(chain))
		return err
	}
}
