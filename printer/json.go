package printer

import (
	"encoding/json"

	"github.com/joshuapare/allocsim/disk/bitmap"
	"github.com/joshuapare/allocsim/disk/linked"
	"github.com/joshuapare/allocsim/freelist"
)

// jsonBlock represents one free-list block in JSON format.
type jsonBlock struct {
	Addr int  `json:"addr"`
	Size int  `json:"size"`
	Free bool `json:"free"`
}

// jsonFreeList represents a free-list allocator in JSON format.
type jsonFreeList struct {
	Kind        string          `json:"kind"`
	Total       int             `json:"total"`
	Cursor      int             `json:"cursor"`
	Blocks      []jsonBlock     `json:"blocks"`
	FreeUnits   *int            `json:"free_units,omitempty"`
	LargestFree *int            `json:"largest_free,omitempty"`
	Stats       *freelist.Stats `json:"stats,omitempty"`
}

// jsonBitmap represents a bitmap disk in JSON format.
type jsonBitmap struct {
	Kind      string `json:"kind"`
	Capacity  int    `json:"capacity"`
	Bits      string `json:"bits"`
	FreeUnits *int   `json:"free_units,omitempty"`
}

// jsonNode represents one linked-block unit in JSON format.
type jsonNode struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Next  int    `json:"next"`
}

// jsonLinked represents a linked-block disk in JSON format. Only occupied
// units are listed.
type jsonLinked struct {
	Kind      string     `json:"kind"`
	Capacity  int        `json:"capacity"`
	Units     []jsonNode `json:"units"`
	FreeUnits *int       `json:"free_units,omitempty"`
}

// jsonChain represents one linked-block file chain in JSON format.
type jsonChain struct {
	Head  int   `json:"head"`
	Units []int `json:"units"`
}

func (p *Printer) printFreeListJSON(a *freelist.Allocator) error {
	blocks := a.Blocks()
	out := jsonFreeList{
		Kind:   "freelist",
		Total:  a.Total(),
		Cursor: a.Cursor(),
		Blocks: make([]jsonBlock, len(blocks)),
	}
	for i, b := range blocks {
		out.Blocks[i] = jsonBlock{Addr: b.Start, Size: b.Size, Free: b.Free}
	}

	if p.opts.ShowStats {
		free, largest, stats := a.FreeUnits(), a.LargestFree(), a.Stats()
		out.FreeUnits = &free
		out.LargestFree = &largest
		out.Stats = &stats
	}

	return p.encode(out)
}

func (p *Printer) printBitmapJSON(a *bitmap.Allocator) error {
	s := a.String()
	out := jsonBitmap{
		Kind:     "bitmap",
		Capacity: a.Capacity(),
		Bits:     s[1 : len(s)-1],
	}
	if p.opts.ShowStats {
		free := a.FreeUnits()
		out.FreeUnits = &free
	}
	return p.encode(out)
}

func (p *Printer) printLinkedJSON(a *linked.Allocator) error {
	out := jsonLinked{
		Kind:     "linked",
		Capacity: a.Capacity(),
		Units:    []jsonNode{},
	}
	for i, n := range a.Nodes() {
		if n.Occupied {
			out.Units = append(out.Units, jsonNode{Index: i, Tag: n.Tag, Next: n.Next})
		}
	}
	if p.opts.ShowStats {
		free := a.FreeUnits()
		out.FreeUnits = &free
	}
	return p.encode(out)
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
