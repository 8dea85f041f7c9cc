package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion()
		},
	})
}

func runVersion() error {
	info := versionInfo{Version: version, Commit: commit, Built: date, Go: runtime.Version()}
	if jsonOut {
		return printJSON(info)
	}
	printInfo("allocsim %s\n", info.Version)
	printInfo("  commit: %s\n  built:  %s\n  go:     %s\n", info.Commit, info.Built, info.Go)
	return nil
}
