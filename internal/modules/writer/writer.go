// Package writer provides implementations for output writer modules.
// Writer modules persist events that survived the processing path.
package writer

import (
	"context"

	"github.com/muonstream/runtime/pkg/event"
)

// Module represents an output writer.
type Module interface {
	// Write persists the given events. Returns the number of events
	// written and any error.
	Write(ctx context.Context, events []event.Event) (int, error)

	// Close flushes buffers and releases resources held by the module.
	Close() error
}
