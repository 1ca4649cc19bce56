package cli

import (
	"fmt"
	"os"

	"github.com/muonstream/runtime/internal/config"
)

// PrintJobFileErrors reports job file parse and validation errors on
// stderr. Parse errors carry file:line:column locations; validation
// errors carry the JSON pointer into the job document.
func PrintJobFileErrors(result *config.Result, opts OutputOptions) {
	if result == nil {
		return
	}
	if len(result.ParseErrors) > 0 {
		printParseErrors(result.ParseErrors, opts)
		return
	}
	if len(result.ValidationErrors) > 0 {
		printValidationErrors(result.ValidationErrors, opts)
	}
}

func printParseErrors(errs []config.ParseError, opts OutputOptions) {
	fmt.Fprintln(os.Stderr, "✗ Parse errors:")
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  %s\n", err.Error())
		if opts.Verbose && err.Type != "" {
			fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
		}
	}
}

func printValidationErrors(errs []config.ValidationError, opts OutputOptions) {
	fmt.Fprintln(os.Stderr, "✗ Validation errors:")
	for _, err := range errs {
		path := err.Path
		if path == "" {
			path = "/"
		}
		if opts.Verbose {
			fmt.Fprintf(os.Stderr, "  %s:\n", path)
			fmt.Fprintf(os.Stderr, "    Message: %s\n", err.Message)
			if err.Type != "" {
				fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
			}
			if err.Expected != "" {
				fmt.Fprintf(os.Stderr, "    Expected: %s\n", err.Expected)
			}
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s: %s\n", path, truncate(err.Message, 80))
	}
	if !opts.Quiet {
		fmt.Fprintln(os.Stderr, "\nHint: Use --verbose for detailed error information")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
