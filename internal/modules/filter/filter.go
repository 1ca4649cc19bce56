// Package filter provides implementations for filter modules.
// Filter modules inspect events and decide which pass downstream,
// optionally attaching derived collections along the way.
package filter

import (
	"context"

	"github.com/muonstream/runtime/pkg/event"
)

// Module represents a filter step in a processing path.
type Module interface {
	// Process inspects the input events and returns the ones that pass.
	// Implementations may attach derived collections to passing events.
	Process(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// Error handling modes shared by configurable filter modules.
const (
	// OnErrorFail aborts the path on the first evaluation error.
	OnErrorFail = "fail"
	// OnErrorSkip drops the event that caused the error and continues.
	OnErrorSkip = "skip"
	// OnErrorKeep logs the error, keeps the event, and continues.
	OnErrorKeep = "keep"
)

// normalizeOnError maps a configured onError value to a known mode,
// defaulting to fail.
func normalizeOnError(s string) string {
	switch s {
	case OnErrorSkip:
		return OnErrorSkip
	case OnErrorKeep:
		return OnErrorKeep
	default:
		return OnErrorFail
	}
}
