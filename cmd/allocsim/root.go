package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/allocsim/internal/logger"
	"github.com/joshuapare/allocsim/printer"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	check    bool
	stats    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "allocsim",
	Short: "Simulate memory and disk space allocators",
	Long: `allocsim drives three storage allocators through scripted scenarios:
a free-list memory allocator (best, worst and next fit with splitting and
coalescing), a contiguous bitmap disk allocator and a linked-block disk
allocator. Scenarios are YAML files or one of the built-in demos.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		BoolVar(&check, "check", false, "Validate allocator structure after every step")
	rootCmd.PersistentFlags().BoolVar(&stats, "stats", false, "Include counters in status reports")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Log to stderr at this level (debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// initLogger enables diagnostics on stderr when --log-level is set.
// --verbose alone turns on info-level logs.
func initLogger() {
	level := logLevel
	if level == "" && verbose {
		level = "info"
	}
	if level == "" {
		logger.Init(logger.Options{})
		return
	}
	logger.Init(logger.Options{
		Enabled: true,
		Writer:  os.Stderr,
		Level:   logger.ParseLevel(level),
		JSON:    jsonOut,
	})
}

func outputFormat() printer.Format {
	if jsonOut {
		return printer.FormatJSON
	}
	return printer.FormatText
}

// printInfo writes to stdout unless --quiet is set.
func printInfo(format string, args ...any) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stdout, format, args...)
}

// printVerbose writes to stdout only under --verbose.
func printVerbose(format string, args ...any) {
	if verbose {
		printInfo(format, args...)
	}
}

// printError reports a command failure on stderr and in the diagnostic log.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("allocsim: command failed", "error", strings.TrimSpace(msg))
	fmt.Fprint(os.Stderr, "Error: "+msg)
}

// printJSON writes v as indented JSON with the same escaping as status reports.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
