// Package filter provides implementations for filter modules.
// The script module runs a JavaScript selection predicate using the Goja
// engine.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dop251/goja"

	"github.com/muonstream/runtime/internal/errhandling"
	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/internal/pathutil"
	"github.com/muonstream/runtime/pkg/event"
)

// MaxScriptLength is the maximum allowed script length in bytes (100KB).
const MaxScriptLength = 100 * 1024

// selectFuncName is the function the script must define.
const selectFuncName = "select_event"

// ScriptConfig represents the configuration for a script filter module.
// Either Script or ScriptFile must be provided (but not both).
type ScriptConfig struct {
	// Script is inline JavaScript source defining a
	// select_event(event) function returning a truthy value to keep
	// the event.
	Script string `json:"script,omitempty"`

	// ScriptFile is the path to a JavaScript file defining
	// select_event(event).
	ScriptFile string `json:"scriptFile,omitempty"`

	// OnError selects the error handling mode: "fail" (default),
	// "skip", or "keep".
	OnError string `json:"onError,omitempty"`
}

// ScriptModule filters events with a user-supplied JavaScript predicate.
//
// Goja runtimes are not goroutine-safe; each module instance owns one
// runtime and Process must not be called concurrently on the same
// instance. Context cancellation interrupts script execution through
// runtime.Interrupt.
type ScriptModule struct {
	source   string
	onError  string
	runtime  *goja.Runtime
	selectFn goja.Callable
}

// ParseScriptConfig extracts a ScriptConfig from a module configuration
// map.
func ParseScriptConfig(m map[string]interface{}) (ScriptConfig, error) {
	cfg := ScriptConfig{}
	if s, ok := m["script"].(string); ok {
		cfg.Script = s
	}
	if f, ok := m["scriptFile"].(string); ok {
		cfg.ScriptFile = f
	}
	if cfg.Script == "" && cfg.ScriptFile == "" {
		return cfg, errhandling.NewValidationError("script config requires 'script' or 'scriptFile'")
	}
	if cfg.Script != "" && cfg.ScriptFile != "" {
		return cfg, errhandling.NewValidationError("script config cannot have both 'script' and 'scriptFile'")
	}
	if onError, ok := m["onError"].(string); ok {
		cfg.OnError = onError
	}
	return cfg, nil
}

// NewScriptFromConfig compiles the script and verifies that it defines a
// select_event function. Scripts run sandboxed: Goja exposes no file
// system or network access to them.
func NewScriptFromConfig(cfg ScriptConfig) (*ScriptModule, error) {
	source, err := resolveScriptSource(cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, errhandling.NewValidationError("script cannot be empty")
	}
	if len(source) > MaxScriptLength {
		return nil, errhandling.NewValidationError("script exceeds maximum length of %d bytes", MaxScriptLength)
	}

	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, errhandling.NewValidationError("script compilation failed: %v", err)
	}

	fn, ok := goja.AssertFunction(vm.Get(selectFuncName))
	if !ok {
		return nil, errhandling.NewValidationError("script must define a %s(event) function", selectFuncName)
	}

	return &ScriptModule{
		source:   source,
		onError:  normalizeOnError(cfg.OnError),
		runtime:  vm,
		selectFn: fn,
	}, nil
}

// resolveScriptSource returns the script source, reading ScriptFile if
// configured.
func resolveScriptSource(cfg ScriptConfig) (string, error) {
	if cfg.Script != "" {
		return cfg.Script, nil
	}
	if err := pathutil.ValidateFilePath(cfg.ScriptFile); err != nil {
		return "", errhandling.NewValidationError("invalid script file: %v", err)
	}
	content, err := os.ReadFile(cfg.ScriptFile)
	if err != nil {
		return "", fmt.Errorf("reading script file %s: %w", cfg.ScriptFile, err)
	}
	return string(content), nil
}

// Process keeps the events for which select_event returns a truthy value.
func (s *ScriptModule) Process(ctx context.Context, events []event.Event) ([]event.Event, error) {
	s.runtime.ClearInterrupt()

	// Interrupt the JavaScript runtime when the context is canceled.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			s.runtime.Interrupt(ctx.Err())
		case <-watchDone:
		}
	}()

	passed := make([]event.Event, 0, len(events))
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pass, err := s.evaluate(events[i])
		if err != nil {
			keep, handleErr := s.handleError(i, err)
			if handleErr != nil {
				return nil, handleErr
			}
			if keep {
				passed = append(passed, events[i])
			}
			continue
		}
		if pass {
			passed = append(passed, events[i])
		}
	}

	logger.Debug("script filter processed batch",
		slog.Int("events_in", len(events)),
		slog.Int("events_passed", len(passed)),
	)
	return passed, nil
}

// evaluate runs the predicate on one event. The event crosses into the
// script as a plain object with the container-format field names.
func (s *ScriptModule) evaluate(ev event.Event) (bool, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return false, fmt.Errorf("encoding event for script: %w", err)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false, fmt.Errorf("decoding event for script: %w", err)
	}

	result, err := s.selectFn(goja.Undefined(), s.runtime.ToValue(obj))
	if err != nil {
		return false, err
	}
	return result.ToBoolean(), nil
}

// handleError applies the configured error mode to a script failure.
func (s *ScriptModule) handleError(index int, err error) (keep bool, terminal error) {
	switch s.onError {
	case OnErrorSkip:
		logger.Warn("script evaluation failed; dropping event",
			slog.Int("event_index", index),
			slog.String("error", err.Error()),
		)
		return false, nil
	case OnErrorKeep:
		logger.Warn("script evaluation failed; keeping event",
			slog.Int("event_index", index),
			slog.String("error", err.Error()),
		)
		return true, nil
	default:
		return false, fmt.Errorf("script failed on event %d: %w", index, err)
	}
}

// Verify ScriptModule implements Module.
var _ Module = (*ScriptModule)(nil)
