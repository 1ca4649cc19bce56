// Package job provides the public types for muon-filtering jobs: run
// options, the assembled job configuration, and execution results.
// This package is intended to be importable by external projects that
// need to drive the muonstream runtime programmatically.
package job

import (
	"fmt"
	"strings"
	"time"
)

// Tier identifies the input dataset format.
type Tier string

// The two supported data tiers.
const (
	// TierPAT is the pre-selected, analysis-ready physics object tier.
	TierPAT Tier = "PAT"

	// TierRECO is the full detector-reconstruction tier.
	TierRECO Tier = "RECO"
)

// ParseTier resolves an input format string to a Tier. Matching is
// case-insensitive. Anything outside the closed {PAT, RECO} set is an
// error; the caller decides whether to fail or to fall back via
// TierOrDefault.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pat":
		return TierPAT, nil
	case "reco":
		return TierRECO, nil
	default:
		return "", fmt.Errorf("unknown input format %q: must be PAT or RECO", s)
	}
}

// TierOrDefault resolves an input format string leniently: a
// case-insensitive "reco" selects the RECO tier and every other value,
// including unrecognized strings, selects PAT. This reproduces the
// historical fallback behavior and is only used when lenient format
// handling is explicitly requested.
func TierOrDefault(s string) Tier {
	if strings.ToLower(strings.TrimSpace(s)) == "reco" {
		return TierRECO
	}
	return TierPAT
}

// Default run option values.
const (
	// DefaultOutFilename is the default output container file name.
	DefaultOutFilename = "FilteredEvents.root"

	// DefaultInputFormat is the default input dataset format.
	DefaultInputFormat = "PAT"

	// DefaultMaxEvents disables the event count limit (run to completion).
	DefaultMaxEvents = -1

	// DefaultReportEvery is the progress report cadence in events.
	DefaultReportEvery = 1000
)

// Options are the run options for a job. Set once at startup, before
// Configure is called; never modified afterwards.
type Options struct {
	// OutFilename is the output container file name.
	OutFilename string `json:"outFilename"`

	// InputFormat selects the data tier ("PAT" or "RECO",
	// case-insensitive).
	InputFormat string `json:"inputFormat"`

	// InputFiles overrides the default dataset file list for the
	// selected tier. Empty means use the tier's built-in list.
	InputFiles []string `json:"inputFiles,omitempty"`

	// MaxEvents caps the number of events read. -1 means unbounded.
	MaxEvents int `json:"maxEvents"`

	// ReportEvery is the progress report cadence in events.
	ReportEvery int `json:"reportEvery"`

	// LenientFormat restores the historical behavior of silently
	// falling back to the PAT tier for unrecognized input formats.
	LenientFormat bool `json:"lenientFormat,omitempty"`

	// LogThreshold is the minimum reported severity ("debug", "info",
	// "warn", "error"). Empty means "info".
	LogThreshold string `json:"logThreshold,omitempty"`

	// ExtraFilters are additional filter steps appended to the path
	// after the muon filter (cut and script modules).
	ExtraFilters []ModuleConfig `json:"extraFilters,omitempty"`
}

// DefaultOptions returns Options populated with the default values.
func DefaultOptions() Options {
	return Options{
		OutFilename:  DefaultOutFilename,
		InputFormat:  DefaultInputFormat,
		MaxEvents:    DefaultMaxEvents,
		ReportEvery:  DefaultReportEvery,
		LogThreshold: "info",
	}
}

// Spec is the declarative form of a job as read from a job file. It
// carries the run options plus identifying metadata; Configure turns it
// into a Config.
type Spec struct {
	// Name is the process name for the job.
	Name string `json:"name"`

	// Description is free-form documentation for the job file.
	Description string `json:"description,omitempty"`

	// Options are the run options declared in the file.
	Options Options `json:"options"`
}

// ModuleConfig describes one processing module by registered type name
// plus its module-specific configuration.
type ModuleConfig struct {
	// Type is the registered module type (e.g. "pool", "PatMuonFilter",
	// "cut").
	Type string `json:"type"`

	// Config contains the module-specific configuration.
	Config map[string]interface{} `json:"config,omitempty"`
}

// Step is one entry in a processing path.
type Step struct {
	// Name is the step's label within the path.
	Name string `json:"name"`

	// Module is the module the step runs.
	Module ModuleConfig `json:"module"`
}

// LoggingConfig is the message logger configuration for a job.
type LoggingConfig struct {
	// Threshold is the minimum reported severity ("debug", "info",
	// "warn", "error").
	Threshold string `json:"threshold"`

	// Limit caps the number of messages at the threshold severity.
	// -1 means unlimited.
	Limit int `json:"limit"`

	// ReportEvery is the event-read progress report cadence.
	ReportEvery int `json:"reportEvery"`
}

// Config is a fully assembled job: input source, processing path, and
// end path. It is built once by the configurator and is immutable; the
// runtime only reads it.
type Config struct {
	// Name identifies the job (process name).
	Name string `json:"name"`

	// Tier is the resolved input data tier.
	Tier Tier `json:"tier"`

	// Source is the event source module configuration.
	Source ModuleConfig `json:"source"`

	// Path is the ordered filter sequence, executed per event batch.
	// The first step is always the tier's muon filter.
	Path []Step `json:"path"`

	// EndPath is the terminal sequence, executed on events that
	// survived the path. Contains exactly the output writer.
	EndPath []Step `json:"endPath"`

	// Logging is the message logger configuration.
	Logging LoggingConfig `json:"logging"`

	// MaxEvents caps the number of events read. -1 means unbounded.
	MaxEvents int `json:"maxEvents"`

	// OutFilename is the output container file name, exactly as
	// supplied in the run options.
	OutFilename string `json:"outFilename"`
}

// Execution status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ExecutionResult is the outcome of running a job.
type ExecutionResult struct {
	// JobName is the name of the executed job.
	JobName string `json:"jobName"`

	// Status is "success" or "error".
	Status string `json:"status"`

	// StartedAt is when execution started.
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed.
	CompletedAt time.Time `json:"completedAt"`

	// EventsRead is the number of events read from the source.
	EventsRead int `json:"eventsRead"`

	// EventsPassed is the number of events that survived the path and
	// were handed to the end path.
	EventsPassed int `json:"eventsPassed"`

	// EventsWritten is the number of events the writer reported
	// written. Zero in dry-run mode is expected.
	EventsWritten int `json:"eventsWritten"`

	// Error contains error details when Status is "error".
	Error *ExecutionError `json:"error,omitempty"`
}

// ExecutionError contains details about an execution failure.
type ExecutionError struct {
	// Code is the error code (e.g. SOURCE_FAILED).
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Module is the module where the error occurred.
	Module string `json:"module,omitempty"`
}
