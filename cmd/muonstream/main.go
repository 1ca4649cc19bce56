// Package main provides the CLI entry point for the muonstream runtime.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/muonstream/runtime/internal/cli"
	"github.com/muonstream/runtime/internal/config"
	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/internal/runtime"
	"github.com/muonstream/runtime/pkg/job"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Global flags
	verbose bool
	quiet   bool

	// Run/configure command flags
	dryRun        bool
	jobName       string
	outFilename   string
	inputFormat   string
	inputFiles    []string
	maxEvents     int
	reportEvery   int
	lenientFormat bool

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "muonstream",
	Short: "muonstream - Muon event filtering runtime",
	Long: `muonstream selects and filters muon events from PAT or RECO
datasets and writes the surviving events to an output container file.

A job can be configured entirely from flags, or from a job file
(JSON/YAML format) with flags overriding individual fields.

Examples:
  # Run the default PAT muon filter job
  muonstream run

  # Run over the RECO tier with a custom output file
  muonstream run --input-format RECO -o FilteredRecoEvents.root

  # Run from a job file
  muonstream run job.yaml

  # Validate a job file
  muonstream validate job.yaml`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(slog.LevelDebug)
		} else if quiet {
			logger.SetLevel(slog.LevelError)
		}
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <job-file>",
	Short: "Validate a job file",
	Long: `Validate a job file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Job file is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  muonstream validate job.json
  muonstream validate --verbose job.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var configureCmd = &cobra.Command{
	Use:   "configure [job-file]",
	Short: "Assemble and display a job configuration without running it",
	Long: `Assemble the job configuration from flags (and an optional job
file) and display the resulting source, path, and output, without
reading any events.

Exit codes:
  0 - Job assembled successfully
  1 - Validation errors (unknown input format, bad options)
  2 - Parse errors in the job file

Examples:
  muonstream configure
  muonstream configure --input-format reco
  muonstream configure job.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConfigure,
}

var runCmd = &cobra.Command{
	Use:   "run [job-file]",
	Short: "Run a muon filtering job",
	Long: `Run a muon filtering job.

With no job file the job is assembled entirely from flags and
defaults: the PAT tier, its built-in dataset, and the output file
FilteredEvents.root. With a job file, flags override the fields they
name.

Flags:
  --dry-run   Read and filter events without writing the output file

Exit codes:
  0 - Job executed successfully
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors

Examples:
  muonstream run
  muonstream run --input-format RECO --max-events 1000
  muonstream run --dry-run job.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runJob,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	// Run command flags
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read and filter without writing the output file")
	for _, cmd := range []*cobra.Command{runCmd, configureCmd} {
		cmd.Flags().StringVar(&jobName, "name", "", "Process name for the job")
		cmd.Flags().StringVarP(&outFilename, "out-filename", "o", job.DefaultOutFilename, "Output container file name")
		cmd.Flags().StringVarP(&inputFormat, "input-format", "f", job.DefaultInputFormat, "Input data tier: PAT or RECO (case-insensitive)")
		cmd.Flags().StringSliceVar(&inputFiles, "input-files", nil, "Input container files (overrides the tier's built-in dataset)")
		cmd.Flags().IntVar(&maxEvents, "max-events", job.DefaultMaxEvents, "Maximum events to process (-1 for unbounded)")
		cmd.Flags().IntVar(&reportEvery, "report-every", job.DefaultReportEvery, "Progress report cadence in events")
		cmd.Flags().BoolVar(&lenientFormat, "lenient-format", false, "Fall back to PAT on an unrecognized input format instead of failing")
	}

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func runValidate(_ *cobra.Command, args []string) {
	jobPath := args[0]

	if !quiet {
		fmt.Printf("Validating job file: %s\n", jobPath)
	}

	result := config.ParseJobFile(jobPath)

	if len(result.ParseErrors) > 0 {
		cli.PrintJobFileErrors(result, cli.OutputOptions{Verbose: verbose, Quiet: quiet})
		os.Exit(ExitParseError)
	}

	if len(result.ValidationErrors) > 0 {
		cli.PrintJobFileErrors(result, cli.OutputOptions{Verbose: verbose, Quiet: quiet})
		os.Exit(ExitValidationError)
	}

	if !quiet {
		fmt.Printf("✓ Job file is valid (format: %s)\n", result.Format)
		if verbose {
			if spec, err := config.ConvertToSpec(result.Data); err == nil && spec.Name != "" {
				fmt.Printf("  Job: %s\n", spec.Name)
			}
		}
	}

	os.Exit(ExitSuccess)
}

// assembleConfig builds the job configuration from the optional job
// file plus flag overrides. Flags that were explicitly set on the
// command line win over job file values.
func assembleConfig(cmd *cobra.Command, args []string) *job.Config {
	name := jobName
	opts := job.DefaultOptions()

	if len(args) == 1 {
		jobPath := args[0]
		if !quiet {
			fmt.Printf("Loading job file: %s\n", jobPath)
		}

		result := config.ParseJobFile(jobPath)
		if !result.IsValid() {
			cli.PrintJobFileErrors(result, cli.OutputOptions{Verbose: verbose, Quiet: quiet})
			if len(result.ParseErrors) > 0 {
				os.Exit(ExitParseError)
			}
			os.Exit(ExitValidationError)
		}

		spec, err := config.ConvertToSpec(result.Data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to convert job file: %v\n", err)
			os.Exit(ExitParseError)
		}

		opts = spec.Options
		if name == "" {
			name = spec.Name
		}
	}

	flags := cmd.Flags()
	if flags.Changed("out-filename") {
		opts.OutFilename = outFilename
	}
	if flags.Changed("input-format") {
		opts.InputFormat = inputFormat
	}
	if flags.Changed("input-files") {
		opts.InputFiles = inputFiles
	}
	if flags.Changed("max-events") {
		opts.MaxEvents = maxEvents
	}
	if flags.Changed("report-every") {
		opts.ReportEvery = reportEvery
	}
	if flags.Changed("lenient-format") {
		opts.LenientFormat = lenientFormat
	}

	cfg, err := config.Configure(name, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to configure job: %v\n", err)
		os.Exit(ExitValidationError)
	}
	return cfg
}

func runConfigure(cmd *cobra.Command, args []string) {
	cfg := assembleConfig(cmd, args)

	if !quiet {
		fmt.Println("✓ Job configured successfully")
		cli.PrintJobSummary(cfg, verbose)
	}

	os.Exit(ExitSuccess)
}

func runJob(cmd *cobra.Command, args []string) {
	cfg := assembleConfig(cmd, args)

	// -v/-q win over the job's logging config.
	if !verbose && !quiet {
		logger.SetLevel(logger.ParseLevel(cfg.Logging.Threshold))
	}

	if verbose && !quiet {
		cli.PrintJobSummary(cfg, verbose)
	}

	executor, err := runtime.NewExecutorFromConfig(cfg, dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to create job modules: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if !quiet {
		if dryRun {
			fmt.Println("Executing job (dry-run mode - no output will be written)...")
		} else {
			fmt.Println("Executing job...")
		}
	}

	execResult, err := executor.Execute(cfg)

	cli.PrintExecutionResult(execResult, err, cli.OutputOptions{
		Verbose: verbose,
		Quiet:   quiet,
		DryRun:  dryRun,
	})

	if err != nil {
		os.Exit(ExitRuntimeError)
	}

	os.Exit(ExitSuccess)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
}
