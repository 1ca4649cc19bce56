// Package source provides implementations for event source modules.
// The pool module reads JSON-lines event container files.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/muonstream/runtime/internal/errhandling"
	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/internal/pathutil"
	"github.com/muonstream/runtime/pkg/event"
	"github.com/muonstream/runtime/pkg/job"
)

// maxEventLineBytes is the scanner buffer cap for one serialized event.
const maxEventLineBytes = 16 * 1024 * 1024

// PoolConfig represents the configuration for a pool source module.
type PoolConfig struct {
	// Files is the ordered list of event container files to read.
	Files []string `json:"files"`

	// MaxEvents caps the number of events read across all files.
	// -1 means unbounded.
	MaxEvents int `json:"maxEvents"`

	// ReportEvery is the progress report cadence in events read.
	ReportEvery int `json:"reportEvery"`

	// JobName labels progress reports.
	JobName string `json:"jobName,omitempty"`
}

// PoolModule reads events from a list of JSON-lines container files.
// Files are opened with retry: dataset storage is typically a networked
// mount and transient open failures are common there.
type PoolModule struct {
	cfg   PoolConfig
	retry errhandling.RetryConfig
}

// ParsePoolConfig extracts a PoolConfig from a module configuration map.
func ParsePoolConfig(m map[string]interface{}) (PoolConfig, error) {
	cfg := PoolConfig{
		MaxEvents:   job.DefaultMaxEvents,
		ReportEvery: job.DefaultReportEvery,
	}

	rawFiles, ok := m["files"]
	if !ok {
		return cfg, errhandling.NewValidationError("required field 'files' is missing in pool source config")
	}
	switch files := rawFiles.(type) {
	case []string:
		cfg.Files = files
	case []interface{}:
		for i, f := range files {
			s, isStr := f.(string)
			if !isStr {
				return cfg, errhandling.NewValidationError("files[%d] must be a string, got %T", i, f)
			}
			cfg.Files = append(cfg.Files, s)
		}
	default:
		return cfg, errhandling.NewValidationError("'files' must be a list of strings, got %T", rawFiles)
	}
	if len(cfg.Files) == 0 {
		return cfg, errhandling.NewValidationError("pool source config requires at least one file")
	}

	if v, ok := intFromConfig(m, "maxEvents"); ok {
		cfg.MaxEvents = v
	}
	if v, ok := intFromConfig(m, "reportEvery"); ok {
		if v < 1 {
			return cfg, errhandling.NewValidationError("reportEvery must be positive, got %d", v)
		}
		cfg.ReportEvery = v
	}
	if name, ok := m["jobName"].(string); ok {
		cfg.JobName = name
	}

	return cfg, nil
}

// NewPoolFromConfig creates a pool source module from a module
// configuration. It validates the file list but does not open any file;
// reads happen in Fetch.
func NewPoolFromConfig(cfg job.ModuleConfig) (*PoolModule, error) {
	poolCfg, err := ParsePoolConfig(cfg.Config)
	if err != nil {
		return nil, err
	}
	for _, f := range poolCfg.Files {
		if err := pathutil.ValidateFilePath(f); err != nil {
			return nil, errhandling.NewValidationError("invalid input file: %v", err)
		}
	}
	return &PoolModule{
		cfg:   poolCfg,
		retry: errhandling.DefaultRetryConfig(),
	}, nil
}

// Fetch reads events from the configured files in order, capped at
// MaxEvents, logging a progress report every ReportEvery events.
func (p *PoolModule) Fetch(ctx context.Context) ([]event.Event, error) {
	var events []event.Event

	for _, path := range p.cfg.Files {
		if p.done(len(events)) {
			break
		}

		var f *os.File
		err := errhandling.Retry(ctx, p.retry, func() error {
			var openErr error
			f, openErr = os.Open(path)
			return openErr
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}

		events, err = p.readFile(ctx, f, path, events)
		closeErr := f.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			logger.Warn("failed to close input file",
				slog.String("file", path),
				slog.String("error", closeErr.Error()),
			)
		}
	}

	logger.Debug("source fetch complete",
		slog.String("job_name", p.cfg.JobName),
		slog.Int("events_read", len(events)),
		slog.Int("files", len(p.cfg.Files)),
	)
	return events, nil
}

// readFile scans one container file, appending decoded events until the
// file ends, the event limit is reached, or the context is canceled.
func (p *PoolModule) readFile(ctx context.Context, f *os.File, path string, events []event.Event) ([]event.Event, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxEventLineBytes)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.done(len(events)) {
			return events, nil
		}

		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev event.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s:%d: %w", path, line, err)
		}
		events = append(events, ev)

		if p.cfg.ReportEvery > 0 && len(events)%p.cfg.ReportEvery == 0 {
			logger.LogProgress(p.cfg.JobName, len(events))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return events, nil
}

// done reports whether the event limit has been reached.
func (p *PoolModule) done(count int) bool {
	return p.cfg.MaxEvents >= 0 && count >= p.cfg.MaxEvents
}

// Close releases resources held by the module. Files are closed as they
// are read, so there is nothing to release here.
func (p *PoolModule) Close() error {
	return nil
}

// intFromConfig reads an integer config value that may arrive as int
// (YAML) or float64 (JSON).
func intFromConfig(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Verify PoolModule implements Module.
var _ Module = (*PoolModule)(nil)
