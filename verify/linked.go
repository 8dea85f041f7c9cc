package verify

import (
	"fmt"

	"github.com/joshuapare/allocsim/disk/linked"
)

// Linked checks the unit table of a linked-block disk: free units carry no
// tag or link, every link of an occupied unit lands on an occupied unit of
// the same file, and no unit is the successor of two others.
func Linked(nodes []linked.Node) error {
	pointedBy := make(map[int]int, len(nodes))

	for i, n := range nodes {
		if !n.Occupied {
			if n.Next != linked.End || n.Tag != "" {
				return &ValidationError{
					Type:    "Linked",
					Message: fmt.Sprintf("free unit carries tag %q or link %d", n.Tag, n.Next),
					Index:   i,
				}
			}
			continue
		}

		if n.Next == linked.End {
			continue
		}
		if n.Next < 0 || n.Next >= len(nodes) {
			return &ValidationError{
				Type:    "Linked",
				Message: fmt.Sprintf("link %d outside disk of %d units", n.Next, len(nodes)),
				Index:   i,
			}
		}

		succ := nodes[n.Next]
		if !succ.Occupied || succ.Tag != n.Tag {
			return &ValidationError{
				Type:    "Linked",
				Message: fmt.Sprintf("unit of %q links to unit %d owned by %q", n.Tag, n.Next, succ.Tag),
				Index:   i,
			}
		}
		if prev, dup := pointedBy[n.Next]; dup {
			return &ValidationError{
				Type:    "Linked",
				Message: fmt.Sprintf("unit %d is linked from both %d and %d", n.Next, prev, i),
				Index:   i,
			}
		}
		pointedBy[n.Next] = i
	}
	return nil
}
