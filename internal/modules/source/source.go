// Package source provides implementations for event source modules.
// Source modules read events from dataset files and hand them to the
// processing path.
package source

import (
	"context"

	"github.com/muonstream/runtime/pkg/event"
)

// Module represents an event source.
type Module interface {
	// Fetch reads events from the dataset. The context can be used to
	// cancel long-running reads. Returns the events in file order.
	Fetch(ctx context.Context) ([]event.Event, error)

	// Close releases any resources held by the module.
	Close() error
}
