package scenario

import (
	"errors"

	"github.com/joshuapare/allocsim/disk/bitmap"
	"github.com/joshuapare/allocsim/disk/linked"
	"github.com/joshuapare/allocsim/freelist"
)

// Outcome kinds reported for failed steps.
const (
	OutcomeOutOfSpace         = "out-of-space"
	OutcomeAddressNotFound    = "address-not-found"
	OutcomeNoContiguousSpace  = "no-contiguous-space"
	OutcomeNotEnoughSpace     = "not-enough-space"
	OutcomeIndexOutOfRange    = "index-out-of-range"
	OutcomeNotAllocated       = "not-allocated"
	OutcomeNotChainHead       = "not-chain-head"
	OutcomeInvalidRequest     = "invalid-request"
	outcomeUnclassifiedFailed = "failed"
)

var outcomes = []struct {
	kind string
	errs []error
}{
	{OutcomeOutOfSpace, []error{freelist.ErrOutOfSpace}},
	{OutcomeAddressNotFound, []error{freelist.ErrAddressNotFound}},
	{OutcomeNoContiguousSpace, []error{bitmap.ErrNoContiguousSpace}},
	{OutcomeNotEnoughSpace, []error{linked.ErrNotEnoughSpace}},
	{OutcomeIndexOutOfRange, []error{bitmap.ErrIndexOutOfRange, linked.ErrIndexOutOfRange}},
	{OutcomeNotAllocated, []error{linked.ErrNotAllocated}},
	{OutcomeNotChainHead, []error{linked.ErrNotChainHead}},
	{OutcomeInvalidRequest, []error{
		freelist.ErrInvalidSize, freelist.ErrUnknownPolicy,
		bitmap.ErrInvalidSize, linked.ErrInvalidSize, linked.ErrInvalidTag,
	}},
}

// OutcomeOf classifies an allocator error. A nil error yields "".
func OutcomeOf(err error) string {
	if err == nil {
		return ""
	}
	for _, o := range outcomes {
		for _, target := range o.errs {
			if errors.Is(err, target) {
				return o.kind
			}
		}
	}
	return outcomeUnclassifiedFailed
}

func knownOutcome(kind string) bool {
	for _, o := range outcomes {
		if o.kind == kind {
			return true
		}
	}
	return false
}
