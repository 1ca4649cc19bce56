// Package cli provides CLI output formatting and display functions.
package cli

import (
	"fmt"
	"os"

	"github.com/muonstream/runtime/pkg/job"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
	DryRun  bool
}

// PrintExecutionResult displays the job execution result.
func PrintExecutionResult(result *job.ExecutionResult, err error, opts OutputOptions) {
	if result == nil {
		fmt.Fprintln(os.Stderr, "✗ No execution result available")
		return
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Job execution failed")
		if result.Error != nil {
			if result.Error.Module != "" {
				fmt.Fprintf(os.Stderr, "  Module: %s\n", result.Error.Module)
			}
			fmt.Fprintf(os.Stderr, "  Error: %s\n", result.Error.Message)
		}
		return
	}

	if opts.Quiet {
		return
	}

	fmt.Println("✓ Job executed successfully")
	fmt.Printf("  Status: %s\n", result.Status)
	fmt.Printf("  Events read: %d\n", result.EventsRead)
	fmt.Printf("  Events passed: %d\n", result.EventsPassed)
	if opts.DryRun {
		fmt.Printf("  Events that would be written: %d (dry-run, nothing written)\n", result.EventsPassed)
	} else {
		fmt.Printf("  Events written: %d\n", result.EventsWritten)
	}
	if opts.Verbose {
		fmt.Printf("  Duration: %v\n", result.CompletedAt.Sub(result.StartedAt))
	}
}

// PrintJobSummary displays the assembled job configuration: the source
// files, the path steps, and the output file.
func PrintJobSummary(cfg *job.Config, verbose bool) {
	if cfg == nil {
		return
	}

	fmt.Printf("  Job: %s\n", cfg.Name)
	fmt.Printf("  Tier: %s\n", cfg.Tier)
	fmt.Printf("  Output: %s\n", cfg.OutFilename)
	if cfg.MaxEvents >= 0 {
		fmt.Printf("  Max events: %d\n", cfg.MaxEvents)
	}

	if files, ok := cfg.Source.Config["files"].([]string); ok {
		fmt.Printf("  Input files (%d):\n", len(files))
		for _, f := range files {
			fmt.Printf("    %s\n", f)
		}
	}

	fmt.Print("  Path:")
	for _, step := range cfg.Path {
		fmt.Printf(" %s(%s)", step.Name, step.Module.Type)
	}
	fmt.Println()

	if verbose {
		fmt.Print("  End path:")
		for _, step := range cfg.EndPath {
			fmt.Printf(" %s(%s)", step.Name, step.Module.Type)
		}
		fmt.Println()
	}
}
