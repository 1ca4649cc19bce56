// Package runtime provides the job execution engine. It orchestrates
// the source, the filter path, and the end-path writer.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/internal/modules/filter"
	"github.com/muonstream/runtime/internal/modules/source"
	"github.com/muonstream/runtime/internal/modules/writer"
	"github.com/muonstream/runtime/internal/registry"
	"github.com/muonstream/runtime/pkg/event"
	"github.com/muonstream/runtime/pkg/job"
)

// Error codes for job execution errors.
const (
	ErrCodeSourceFailed  = "SOURCE_FAILED"
	ErrCodeFilterFailed  = "FILTER_FAILED"
	ErrCodeWriterFailed  = "WRITER_FAILED"
	ErrCodeInvalidConfig = "INVALID_CONFIG"
)

// Common errors.
var (
	// ErrNilConfig is returned when the job configuration is nil.
	ErrNilConfig = errors.New("job configuration is nil")

	// ErrNilSource is returned when the source module is nil.
	ErrNilSource = errors.New("source module is nil")

	// ErrNilWriter is returned when the writer module is nil.
	ErrNilWriter = errors.New("writer module is nil")
)

// Executor runs an assembled job: source → path filters → end-path
// writer. It interacts with modules only through their interfaces, so
// the runtime never depends on concrete module types.
type Executor struct {
	sourceModule  source.Module
	filterModules []filter.Module
	filterNames   []string
	writerModule  writer.Module
	dryRun        bool
}

// NewExecutorWithModules creates an executor with all modules supplied
// directly. This is the constructor used by tests and embedders.
func NewExecutorWithModules(src source.Module, filters []filter.Module, w writer.Module, dryRun bool) *Executor {
	names := make([]string, len(filters))
	for i := range filters {
		names[i] = fmt.Sprintf("filter[%d]", i)
	}
	return &Executor{
		sourceModule:  src,
		filterModules: filters,
		filterNames:   names,
		writerModule:  w,
		dryRun:        dryRun,
	}
}

// NewExecutorFromConfig creates an executor by resolving every module
// named in the job configuration through the registry.
func NewExecutorFromConfig(cfg *job.Config, dryRun bool) (*Executor, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	srcCtor := registry.GetSourceConstructor(cfg.Source.Type)
	if srcCtor == nil {
		return nil, fmt.Errorf("no source module registered for type %q", cfg.Source.Type)
	}
	src, err := srcCtor(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("creating source module %q: %w", cfg.Source.Type, err)
	}

	var filters []filter.Module
	var filterNames []string
	for i, step := range cfg.Path {
		ctor := registry.GetFilterConstructor(step.Module.Type)
		if ctor == nil {
			return nil, fmt.Errorf("no filter module registered for type %q (step %q)", step.Module.Type, step.Name)
		}
		f, newErr := ctor(step.Module, i)
		if newErr != nil {
			return nil, fmt.Errorf("creating filter module %q (step %q): %w", step.Module.Type, step.Name, newErr)
		}
		filters = append(filters, f)
		filterNames = append(filterNames, step.Name)
	}

	if len(cfg.EndPath) != 1 {
		return nil, fmt.Errorf("end path must contain exactly one writer step, got %d", len(cfg.EndPath))
	}
	endStep := cfg.EndPath[0]
	wCtor := registry.GetWriterConstructor(endStep.Module.Type)
	if wCtor == nil {
		return nil, fmt.Errorf("no writer module registered for type %q (step %q)", endStep.Module.Type, endStep.Name)
	}
	w, err := wCtor(endStep.Module)
	if err != nil {
		return nil, fmt.Errorf("creating writer module %q (step %q): %w", endStep.Module.Type, endStep.Name, err)
	}

	return &Executor{
		sourceModule:  src,
		filterModules: filters,
		filterNames:   filterNames,
		writerModule:  w,
		dryRun:        dryRun,
	}, nil
}

// Execute runs a job configuration with a background context. For
// cancellation support, use ExecuteWithContext.
func (e *Executor) Execute(cfg *job.Config) (*job.ExecutionResult, error) {
	return e.ExecuteWithContext(context.Background(), cfg)
}

// ExecuteWithContext runs a job configuration with the given context.
//
// Execution flow:
//  1. Validate the configuration and modules
//  2. Fetch events from the source
//  3. Run the path filters in sequence
//  4. Hand surviving events to the end-path writer (skipped in dry-run)
//
// The source is closed immediately after the fetch completes so its
// file handles are released before filtering begins. The writer is
// closed at the end of execution via defer.
func (e *Executor) ExecuteWithContext(ctx context.Context, cfg *job.Config) (*job.ExecutionResult, error) {
	startedAt := time.Now()
	result := &job.ExecutionResult{
		StartedAt: startedAt,
		Status:    job.StatusError,
	}

	if err := e.validateExecution(cfg, result); err != nil {
		return result, err
	}
	result.JobName = cfg.Name

	execCtx := logger.ExecutionContext{
		JobName: cfg.Name,
		Tier:    string(cfg.Tier),
		DryRun:  e.dryRun,
	}
	logger.LogExecutionStart(execCtx)

	if e.writerModule != nil {
		defer e.closeModule(cfg.Name, "writer", e.writerModule)
	}

	events, err := e.executeSource(ctx, cfg, result)
	if e.sourceModule != nil {
		e.closeModule(cfg.Name, "source", e.sourceModule)
		e.sourceModule = nil
	}
	if err != nil {
		logger.LogExecutionEnd(execCtx, job.StatusError, result.EventsRead, 0, time.Since(startedAt))
		return result, err
	}
	result.EventsRead = len(events)

	passed, err := e.executeFilters(ctx, cfg, events, result)
	if err != nil {
		logger.LogExecutionEnd(execCtx, job.StatusError, result.EventsRead, 0, time.Since(startedAt))
		return result, err
	}
	result.EventsPassed = len(passed)

	if err := e.executeWriter(ctx, cfg, passed, result); err != nil {
		logger.LogExecutionEnd(execCtx, job.StatusError, result.EventsRead, result.EventsPassed, time.Since(startedAt))
		return result, err
	}

	result.Status = job.StatusSuccess
	result.CompletedAt = time.Now()
	result.Error = nil
	logger.LogExecutionEnd(execCtx, job.StatusSuccess, result.EventsRead, result.EventsPassed, time.Since(startedAt))
	return result, nil
}

// validateExecution validates the configuration and modules before
// execution.
func (e *Executor) validateExecution(cfg *job.Config, result *job.ExecutionResult) error {
	if cfg == nil {
		logger.Error("job execution failed: nil job configuration")
		result.CompletedAt = time.Now()
		result.Error = &job.ExecutionError{Code: ErrCodeInvalidConfig, Message: ErrNilConfig.Error()}
		return ErrNilConfig
	}

	if e.sourceModule == nil {
		logger.Error("job execution failed: source module is nil",
			slog.String("job_name", cfg.Name))
		result.CompletedAt = time.Now()
		result.Error = &job.ExecutionError{Code: ErrCodeInvalidConfig, Message: ErrNilSource.Error(), Module: "source"}
		return ErrNilSource
	}

	if e.writerModule == nil && !e.dryRun {
		logger.Error("job execution failed: writer module is nil",
			slog.String("job_name", cfg.Name))
		result.CompletedAt = time.Now()
		result.Error = &job.ExecutionError{Code: ErrCodeInvalidConfig, Message: ErrNilWriter.Error(), Module: "writer"}
		return ErrNilWriter
	}

	return nil
}

// moduleCloser is implemented by modules with resources to release.
type moduleCloser interface {
	Close() error
}

// closeModule closes a module and logs any error.
func (e *Executor) closeModule(jobName, moduleName string, m moduleCloser) {
	if err := m.Close(); err != nil {
		logger.Warn("failed to close module",
			slog.String("job_name", jobName),
			slog.String("module", moduleName),
			slog.String("error", err.Error()),
		)
	}
}

// executeSource fetches events from the source module.
func (e *Executor) executeSource(ctx context.Context, cfg *job.Config, result *job.ExecutionResult) ([]event.Event, error) {
	stageCtx := logger.ExecutionContext{
		JobName: cfg.Name,
		Tier:    string(cfg.Tier),
		Stage:   "source",
		DryRun:  e.dryRun,
	}

	start := time.Now()
	events, err := e.sourceModule.Fetch(ctx)
	duration := time.Since(start)

	if err != nil {
		result.CompletedAt = time.Now()
		result.EventsRead = len(events)
		result.Error = buildExecutionError(ErrCodeSourceFailed, "source", err)
		logger.LogStageEnd(stageCtx, len(events), duration, err)
		return nil, fmt.Errorf("executing source module: %w", err)
	}

	logger.LogStageEnd(stageCtx, len(events), duration, nil)
	return events, nil
}

// executeFilters runs the path filters in sequence over the events.
func (e *Executor) executeFilters(ctx context.Context, cfg *job.Config, events []event.Event, result *job.ExecutionResult) ([]event.Event, error) {
	current := events
	for i, filterModule := range e.filterModules {
		name := fmt.Sprintf("filter[%d]", i)
		if i < len(e.filterNames) && e.filterNames[i] != "" {
			name = e.filterNames[i]
		}

		stageCtx := logger.ExecutionContext{
			JobName:    cfg.Name,
			Tier:       string(cfg.Tier),
			Stage:      "filter",
			ModuleName: name,
			DryRun:     e.dryRun,
		}

		logger.Debug("executing filter module",
			slog.String("job_name", cfg.Name),
			slog.String("step", name),
			slog.Int("input_events", len(current)),
		)

		start := time.Now()
		next, err := filterModule.Process(ctx, current)
		duration := time.Since(start)

		if err != nil {
			result.CompletedAt = time.Now()
			execErr := buildExecutionError(ErrCodeFilterFailed, "filter", err)
			execErr.Message = fmt.Sprintf("filter step %q failed: %v", name, err)
			result.Error = execErr
			logger.LogStageEnd(stageCtx, len(current), duration, err)
			return nil, fmt.Errorf("executing filter step %q: %w", name, err)
		}

		logger.LogStageEnd(stageCtx, len(next), duration, nil)
		current = next
	}
	return current, nil
}

// executeWriter hands the surviving events to the end-path writer. In
// dry-run mode the writer is skipped and nothing is written.
func (e *Executor) executeWriter(ctx context.Context, cfg *job.Config, events []event.Event, result *job.ExecutionResult) error {
	if e.dryRun {
		logger.Debug("dry-run mode: skipping writer module",
			slog.String("job_name", cfg.Name),
			slog.Int("events_would_write", len(events)),
		)
		return nil
	}

	stageCtx := logger.ExecutionContext{
		JobName: cfg.Name,
		Tier:    string(cfg.Tier),
		Stage:   "writer",
		DryRun:  e.dryRun,
	}

	start := time.Now()
	written, err := e.writerModule.Write(ctx, events)
	duration := time.Since(start)
	result.EventsWritten = written

	if err != nil {
		result.CompletedAt = time.Now()
		result.Error = buildExecutionError(ErrCodeWriterFailed, "writer", err)
		logger.LogStageEnd(stageCtx, written, duration, err)
		return fmt.Errorf("executing writer module: %w", err)
	}

	logger.LogStageEnd(stageCtx, written, duration, nil)
	return nil
}

// buildExecutionError creates an ExecutionError with a classified
// message.
func buildExecutionError(code, module string, err error) *job.ExecutionError {
	return &job.ExecutionError{
		Code:    code,
		Message: err.Error(),
		Module:  module,
	}
}
