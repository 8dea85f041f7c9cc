package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/allocsim/scenario"
)

func init() {
	rootCmd.AddCommand(newDemoCmd())
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo [name]...",
		Short: "Run built-in demonstration scenarios",
		Long: `The demo command runs the embedded scenarios. With no names it runs
all of them in order; see "allocsim list" for what is available.

Example:
  allocsim demo
  allocsim demo next-fit
  allocsim demo bitmap linked --stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, args)
		},
	}
	return cmd
}

func runDemo(cmd *cobra.Command, names []string) error {
	if len(names) == 0 {
		names = scenario.BuiltinNames()
	}

	scenarios := make([]*scenario.Scenario, 0, len(names))
	for _, name := range names {
		sc, err := scenario.Builtin(name)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}
	return runScenarios(cmd.Context(), scenarios)
}
