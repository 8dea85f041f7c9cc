package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joshuapare/allocsim/internal/logger"
	"github.com/joshuapare/allocsim/printer"
)

// Options controls how a scenario run reports.
type Options struct {
	// Out receives step lines and status reports. Default: io.Discard
	Out io.Writer

	// Format selects text or JSON output.
	// Default: printer.FormatText
	Format printer.Format

	// ShowStats adds counters to status reports.
	ShowStats bool

	// Check validates allocator structure after every step and aborts the
	// run on the first violation.
	Check bool

	// Logger receives run diagnostics. Default: logger.L
	Logger *slog.Logger
}

// Result is the outcome of one step.
type Result struct {
	Step     int    `json:"step"`
	Op       Op     `json:"op"`
	OK       bool   `json:"ok"`
	Addr     int    `json:"addr"`
	Chain    []int  `json:"chain,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Message  string `json:"message,omitempty"`
	Mismatch string `json:"mismatch,omitempty"`
}

// Report collects the results of one run.
type Report struct {
	RunID      string   `json:"run_id"`
	Name       string   `json:"name"`
	Allocator  Kind     `json:"allocator"`
	Results    []Result `json:"results"`
	Mismatches int      `json:"mismatches"`
}

// target adapts one allocator kind to the step vocabulary.
type target interface {
	// apply runs a non-status step and returns its result plus a
	// human-readable outcome line.
	apply(st Step) (Result, string)
	status(p *printer.Printer) error
	check() error
}

// Run executes sc against a new allocator. Step failures are recorded in the
// report; the returned error is reserved for cancellation, invalid scenarios
// and structural check failures.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	format := opts.Format
	if format == "" {
		format = printer.FormatText
	}
	log := opts.Logger
	if log == nil {
		log = logger.L
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Name:      sc.Name,
		Allocator: sc.Allocator,
		Results:   make([]Result, 0, len(sc.Steps)),
	}
	log = log.With("run_id", report.RunID, "scenario", sc.Name)

	tgt, err := newTarget(sc, log)
	if err != nil {
		return nil, err
	}

	popts := printer.DefaultOptions()
	popts.Format = format
	popts.ShowStats = opts.ShowStats
	p := printer.New(out, popts)
	enc := json.NewEncoder(out)

	text := format == printer.FormatText
	if text && sc.Name != "" {
		fmt.Fprintf(out, "--- %s ---\n", sc.Name)
	}
	log.Info("scenario: start", "allocator", sc.Allocator, "capacity", sc.Capacity, "steps", len(sc.Steps))

	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if text && st.Note != "" {
			fmt.Fprintln(out, st.Note)
		}

		var res Result
		if st.Op == OpStatus {
			res = Result{OK: true}
			if err := tgt.status(p); err != nil {
				return report, fmt.Errorf("step %d: status: %w", i+1, err)
			}
		} else {
			var line string
			res, line = tgt.apply(st)
			if text {
				fmt.Fprintln(out, line)
			}
			if res.OK && st.Op == OpChain {
				if err := p.PrintChain(st.Addr, res.Chain); err != nil {
					return report, fmt.Errorf("step %d: chain: %w", i+1, err)
				}
			}
		}
		res.Step = i + 1
		res.Op = st.Op

		if mismatch := compare(st.Expect, res); mismatch != "" {
			res.Mismatch = mismatch
			report.Mismatches++
			log.Warn("scenario: unexpected outcome", "step", res.Step, "op", st.Op, "mismatch", mismatch)
			if text {
				fmt.Fprintf(out, "MISMATCH: %s\n", mismatch)
			}
		}

		if !text && st.Op != OpStatus {
			if err := enc.Encode(res); err != nil {
				return report, err
			}
		}

		log.Debug("scenario: step", "step", res.Step, "op", st.Op, "ok", res.OK, "outcome", res.Outcome)
		report.Results = append(report.Results, res)

		if opts.Check {
			if err := tgt.check(); err != nil {
				return report, fmt.Errorf("step %d: structure check: %w", res.Step, err)
			}
		}
	}

	log.Info("scenario: done", "mismatches", report.Mismatches)
	return report, nil
}

// compare returns a description of how res deviates from want, or "".
func compare(want *Expect, res Result) string {
	if want == nil {
		return ""
	}
	if want.Error != res.Outcome {
		got := res.Outcome
		if got == "" {
			got = "success"
		}
		wantKind := want.Error
		if wantKind == "" {
			wantKind = "success"
		}
		return fmt.Sprintf("expected %s, got %s", wantKind, got)
	}
	if want.Addr != nil && res.OK && res.Addr != *want.Addr {
		return fmt.Sprintf("expected address %d, got %d", *want.Addr, res.Addr)
	}
	return ""
}
