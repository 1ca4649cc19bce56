// Package writer provides implementations for output writer modules.
// The pool module writes events to a JSON-lines container file.
package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/muonstream/runtime/internal/errhandling"
	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/internal/pathutil"
	"github.com/muonstream/runtime/pkg/event"
	"github.com/muonstream/runtime/pkg/job"
)

// PoolConfig represents the configuration for a pool writer module.
type PoolConfig struct {
	// FileName is the output container file name (required). Used
	// exactly as supplied, without modification.
	FileName string `json:"fileName"`
}

// PoolWriter writes events to a JSON-lines container file. The file is
// created lazily on the first Write so that dry runs and empty jobs do
// not leave an empty container behind.
type PoolWriter struct {
	cfg PoolConfig

	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	written int
}

// ParsePoolWriterConfig extracts a PoolConfig from a module
// configuration map.
func ParsePoolWriterConfig(m map[string]interface{}) (PoolConfig, error) {
	cfg := PoolConfig{}
	name, ok := m["fileName"].(string)
	if !ok || name == "" {
		return cfg, errhandling.NewValidationError("required field 'fileName' is missing or empty in pool writer config")
	}
	cfg.FileName = name
	return cfg, nil
}

// NewPoolFromConfig creates a pool writer module from a module
// configuration.
func NewPoolFromConfig(cfg job.ModuleConfig) (*PoolWriter, error) {
	poolCfg, err := ParsePoolWriterConfig(cfg.Config)
	if err != nil {
		return nil, err
	}
	if err := pathutil.ValidateOutputFilename(poolCfg.FileName); err != nil {
		return nil, errhandling.NewValidationError("invalid output file name: %v", err)
	}
	return &PoolWriter{cfg: poolCfg}, nil
}

// FileName returns the configured output file name.
func (w *PoolWriter) FileName() string {
	return w.cfg.FileName
}

// Write appends the events to the output container, one JSON document
// per line.
func (w *PoolWriter) Write(ctx context.Context, events []event.Event) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}

	written := 0
	for i := range events {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		raw, err := json.Marshal(&events[i])
		if err != nil {
			return written, fmt.Errorf("encoding event %d: %w", i, err)
		}
		if _, err := w.buf.Write(raw); err != nil {
			return written, fmt.Errorf("writing %s: %w", w.cfg.FileName, err)
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return written, fmt.Errorf("writing %s: %w", w.cfg.FileName, err)
		}
		written++
	}
	w.written += written

	logger.Debug("writer appended events",
		slog.String("file", w.cfg.FileName),
		slog.Int("events", written),
	)
	return written, nil
}

// open creates the output file and write buffer.
func (w *PoolWriter) open() error {
	f, err := os.Create(w.cfg.FileName)
	if err != nil {
		return fmt.Errorf("creating %s: %w", w.cfg.FileName, err)
	}
	w.file = f
	w.buf = bufio.NewWriter(f)
	return nil
}

// Close flushes and closes the output file. Safe to call when no event
// was ever written.
func (w *PoolWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flushing %s: %w", w.cfg.FileName, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", w.cfg.FileName, err)
	}

	logger.Info("output file closed",
		slog.String("file", w.cfg.FileName),
		slog.Int("events_written", w.written),
	)
	w.file = nil
	w.buf = nil
	return nil
}

// Verify PoolWriter implements Module.
var _ Module = (*PoolWriter)(nil)
