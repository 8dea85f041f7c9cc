package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/allocsim/scenario"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	})
}

type listEntry struct {
	Name        string        `json:"name"`
	Allocator   scenario.Kind `json:"allocator"`
	Capacity    int           `json:"capacity"`
	Steps       int           `json:"steps"`
	Description string        `json:"description,omitempty"`
}

func runList() error {
	var entries []listEntry
	for _, name := range scenario.BuiltinNames() {
		sc, err := scenario.Builtin(name)
		if err != nil {
			return err
		}
		entries = append(entries, listEntry{
			Name:        name,
			Allocator:   sc.Allocator,
			Capacity:    sc.Capacity,
			Steps:       len(sc.Steps),
			Description: sc.Description,
		})
	}

	if jsonOut {
		return printJSON(entries)
	}

	for _, e := range entries {
		printInfo("%-10s %-8s %4d units  %s\n", e.Name, e.Allocator, e.Capacity, e.Description)
	}
	return nil
}
