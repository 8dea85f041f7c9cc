package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/allocsim/scenario"
)

var runFailOnMismatch bool

func init() {
	cmd := newRunCmd()
	cmd.Flags().
		BoolVar(&runFailOnMismatch, "strict", false, "Exit non-zero when a step misses its expectation")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenario files",
		Long: `The run command loads each YAML scenario, builds the allocator it
names and executes its steps in order, printing one line per step and
a snapshot for every status step.

Example:
  allocsim run fragmentation.yaml
  allocsim run a.yaml b.yaml --check --strict
  allocsim run a.yaml --json --stats`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFiles(cmd.Context(), args)
		},
	}
	return cmd
}

func runScenarioFiles(ctx context.Context, paths []string) error {
	scenarios := make([]*scenario.Scenario, 0, len(paths))
	for _, path := range paths {
		printVerbose("Loading scenario: %s\n", path)
		sc, err := scenario.LoadFile(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}
	return runScenarios(ctx, scenarios)
}

// runScenarios executes each scenario and returns the first hard failure, or
// a mismatch summary under --strict.
func runScenarios(ctx context.Context, scenarios []*scenario.Scenario) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var out io.Writer = os.Stdout
	if quiet {
		out = io.Discard
	}

	mismatches := 0
	for _, sc := range scenarios {
		report, err := scenario.Run(ctx, sc, scenario.Options{
			Out:       out,
			Format:    outputFormat(),
			ShowStats: stats,
			Check:     check,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		mismatches += report.Mismatches
		if !jsonOut {
			printVerbose("Run %s finished: %d steps, %d mismatches\n",
				report.RunID, len(report.Results), report.Mismatches)
			printInfo("\n")
		}
	}

	if runFailOnMismatch && mismatches > 0 {
		return fmt.Errorf("%d step(s) missed their expectation", mismatches)
	}
	return nil
}
