// Package scenario describes allocator exercises as YAML documents and runs
// them against freshly constructed allocators.
//
// A scenario names one allocator kind, its capacity and an ordered list of
// steps:
//
//	name: next-fit resumes from cursor
//	allocator: freelist
//	capacity: 100
//	policy: next-fit
//	steps:
//	  - {op: alloc, size: 20, expect: {addr: 0}}
//	  - {op: alloc, size: 30}
//	  - {op: free, addr: 0, size: 20}
//	  - {op: alloc, size: 10, expect: {addr: 50}}
//	  - {op: status}
//
// Allocation failures are outcomes, not run errors: they are reported and the
// run continues. Only malformed scenarios and broken invariants abort a run.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/allocsim/freelist"
)

// Kind selects the allocator a scenario drives.
type Kind string

const (
	KindFreeList Kind = "freelist"
	KindBitmap   Kind = "bitmap"
	KindLinked   Kind = "linked"
)

// Op is a step operation.
type Op string

const (
	OpAlloc   Op = "alloc"
	OpFree    Op = "free"    // freelist: addr,size; bitmap: start,length; linked: head
	OpDealloc Op = "dealloc" // alias of free
	OpStatus  Op = "status"
	OpChain   Op = "chain" // linked only
)

// ErrInvalidScenario wraps every validation failure.
var ErrInvalidScenario = errors.New("scenario: invalid")

// Scenario is one allocator exercise.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Allocator   Kind   `yaml:"allocator"`
	Capacity    int    `yaml:"capacity"`
	// Policy is the default placement policy for freelist alloc steps.
	Policy string `yaml:"policy,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Step is one operation against the scenario's allocator.
type Step struct {
	Op     Op      `yaml:"op"`
	Policy string  `yaml:"policy,omitempty"`
	Tag    string  `yaml:"tag,omitempty"`
	Size   int     `yaml:"size,omitempty"`
	Addr   int     `yaml:"addr,omitempty"`
	Note   string  `yaml:"note,omitempty"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect pins the outcome of a step. Error holds an outcome kind such as
// "out-of-space"; an empty Error expects success.
type Expect struct {
	Addr  *int   `yaml:"addr,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Load decodes and validates a scenario. Unknown fields are rejected.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Validate checks the scenario shape before anything runs.
func (sc *Scenario) Validate() error {
	switch sc.Allocator {
	case KindFreeList, KindBitmap, KindLinked:
	default:
		return fmt.Errorf("%w: unknown allocator %q", ErrInvalidScenario, sc.Allocator)
	}
	if sc.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidScenario, sc.Capacity)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}

	for i, st := range sc.Steps {
		if err := sc.validateStep(st); err != nil {
			return fmt.Errorf("%w: step %d: %w", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func (sc *Scenario) validateStep(st Step) error {
	switch st.Op {
	case OpAlloc:
		if st.Size <= 0 {
			return fmt.Errorf("alloc size must be positive, got %d", st.Size)
		}
		switch sc.Allocator {
		case KindFreeList:
			if _, err := sc.policyFor(st); err != nil {
				return err
			}
		case KindLinked:
			if st.Tag == "" {
				return errors.New("linked alloc needs a tag")
			}
		}
	case OpFree, OpDealloc:
		if sc.Allocator == KindBitmap && st.Size <= 0 {
			return fmt.Errorf("bitmap dealloc length must be positive, got %d", st.Size)
		}
	case OpChain:
		if sc.Allocator != KindLinked {
			return fmt.Errorf("chain is only valid for %s allocators", KindLinked)
		}
	case OpStatus:
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}

	if st.Expect != nil && st.Expect.Error != "" && !knownOutcome(st.Expect.Error) {
		return fmt.Errorf("unknown expected error %q", st.Expect.Error)
	}
	return nil
}

// policyFor resolves the placement policy of a freelist alloc step.
func (sc *Scenario) policyFor(st Step) (freelist.Policy, error) {
	name := st.Policy
	if name == "" {
		name = sc.Policy
	}
	if name == "" {
		return 0, errors.New("freelist alloc needs a policy")
	}
	return freelist.ParsePolicy(name)
}
