// Package filter provides implementations for filter modules.
// The cut module evaluates a selection expression against each event.
package filter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/muonstream/runtime/internal/errhandling"
	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/pkg/event"
)

// CutConfig represents the configuration for a cut filter module.
type CutConfig struct {
	// Expression is the selection expression (required). It is
	// evaluated with the event as environment and must yield a bool,
	// e.g. `any(Muons, .Pt > 25.0)` or `len(TightMuons) > 0`.
	Expression string `json:"expression"`

	// OnError selects the error handling mode: "fail" (default),
	// "skip", or "keep".
	OnError string `json:"onError,omitempty"`
}

// CutModule filters events with a compiled selection expression.
type CutModule struct {
	expression string
	onError    string
	program    *vm.Program
}

// ParseCutConfig extracts a CutConfig from a module configuration map.
func ParseCutConfig(m map[string]interface{}) (CutConfig, error) {
	cfg := CutConfig{}
	exprStr, ok := m["expression"].(string)
	if !ok || exprStr == "" {
		return cfg, errhandling.NewValidationError("required field 'expression' is missing or empty in cut config")
	}
	cfg.Expression = exprStr
	if onError, ok := m["onError"].(string); ok {
		cfg.OnError = onError
	}
	return cfg, nil
}

// NewCutFromConfig compiles the selection expression and returns the
// module. Compilation errors are reported at construction, not per event.
func NewCutFromConfig(cfg CutConfig) (*CutModule, error) {
	program, err := expr.Compile(cfg.Expression,
		expr.Env(event.Event{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, errhandling.NewValidationError("invalid cut expression %q: %v", cfg.Expression, err)
	}
	return &CutModule{
		expression: cfg.Expression,
		onError:    normalizeOnError(cfg.OnError),
		program:    program,
	}, nil
}

// Process keeps the events for which the expression evaluates to true.
func (c *CutModule) Process(ctx context.Context, events []event.Event) ([]event.Event, error) {
	passed := make([]event.Event, 0, len(events))
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := expr.Run(c.program, events[i])
		if err != nil {
			keep, handleErr := c.handleError(i, err)
			if handleErr != nil {
				return nil, handleErr
			}
			if keep {
				passed = append(passed, events[i])
			}
			continue
		}

		if pass, ok := out.(bool); ok && pass {
			passed = append(passed, events[i])
		}
	}

	logger.Debug("cut filter processed batch",
		slog.String("expression", c.expression),
		slog.Int("events_in", len(events)),
		slog.Int("events_passed", len(passed)),
	)
	return passed, nil
}

// handleError applies the configured error mode to an evaluation error.
// It returns whether the event should be kept, or a terminal error.
func (c *CutModule) handleError(index int, err error) (keep bool, terminal error) {
	switch c.onError {
	case OnErrorSkip:
		logger.Warn("cut evaluation failed; dropping event",
			slog.String("expression", c.expression),
			slog.Int("event_index", index),
			slog.String("error", err.Error()),
		)
		return false, nil
	case OnErrorKeep:
		logger.Warn("cut evaluation failed; keeping event",
			slog.String("expression", c.expression),
			slog.Int("event_index", index),
			slog.String("error", err.Error()),
		)
		return true, nil
	default:
		return false, fmt.Errorf("cut expression %q failed on event %d: %w", c.expression, index, err)
	}
}

// Verify CutModule implements Module.
var _ Module = (*CutModule)(nil)
