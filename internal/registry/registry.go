// Package registry provides module registries for source, filter, and
// writer modules.
//
// # Overview
//
// Modules register their constructors by type name at init time, and the
// job configurator resolves tiers to module names through a static
// mapping. There is no runtime assembly of module names from strings:
// a name either has a registered constructor or configuration fails.
//
// # Adding a New Module
//
// To add a new module type (e.g. an "ntuple" writer):
//
//  1. Implement the appropriate interface (source.Module, filter.Module,
//     or writer.Module)
//  2. Create a constructor function matching the registry signature
//  3. Register the constructor in an init() function
//
// Example for a new writer module:
//
//	func init() {
//	    registry.RegisterWriter("ntuple", NewNtupleModule)
//	}
package registry

import (
	"sync"

	"github.com/muonstream/runtime/internal/modules/filter"
	"github.com/muonstream/runtime/internal/modules/source"
	"github.com/muonstream/runtime/internal/modules/writer"
	"github.com/muonstream/runtime/pkg/job"
)

// SourceConstructor creates a source module from configuration.
type SourceConstructor func(cfg job.ModuleConfig) (source.Module, error)

// FilterConstructor creates a filter module from configuration. The
// index is the filter's position in the path, used for error context.
type FilterConstructor func(cfg job.ModuleConfig, index int) (filter.Module, error)

// WriterConstructor creates a writer module from configuration.
type WriterConstructor func(cfg job.ModuleConfig) (writer.Module, error)

var (
	sourceMu       sync.RWMutex
	sourceRegistry = make(map[string]SourceConstructor)

	filterMu       sync.RWMutex
	filterRegistry = make(map[string]FilterConstructor)

	writerMu       sync.RWMutex
	writerRegistry = make(map[string]WriterConstructor)
)

// RegisterSource registers a source module constructor by type name.
// Registering an already registered type overwrites the previous
// constructor. Safe for concurrent use; typically called from init().
func RegisterSource(moduleType string, constructor SourceConstructor) {
	sourceMu.Lock()
	defer sourceMu.Unlock()
	sourceRegistry[moduleType] = constructor
}

// RegisterFilter registers a filter module constructor by type name.
// Registering an already registered type overwrites the previous
// constructor. Safe for concurrent use; typically called from init().
func RegisterFilter(moduleType string, constructor FilterConstructor) {
	filterMu.Lock()
	defer filterMu.Unlock()
	filterRegistry[moduleType] = constructor
}

// RegisterWriter registers a writer module constructor by type name.
// Registering an already registered type overwrites the previous
// constructor. Safe for concurrent use; typically called from init().
func RegisterWriter(moduleType string, constructor WriterConstructor) {
	writerMu.Lock()
	defer writerMu.Unlock()
	writerRegistry[moduleType] = constructor
}

// GetSourceConstructor returns the registered constructor for a source
// module type, or nil if none is registered.
func GetSourceConstructor(moduleType string) SourceConstructor {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	return sourceRegistry[moduleType]
}

// GetFilterConstructor returns the registered constructor for a filter
// module type, or nil if none is registered.
func GetFilterConstructor(moduleType string) FilterConstructor {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return filterRegistry[moduleType]
}

// GetWriterConstructor returns the registered constructor for a writer
// module type, or nil if none is registered.
func GetWriterConstructor(moduleType string) WriterConstructor {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writerRegistry[moduleType]
}

// ListFilterTypes returns all registered filter module type names.
// Useful for documentation and error messages.
func ListFilterTypes() []string {
	filterMu.RLock()
	defer filterMu.RUnlock()
	types := make([]string, 0, len(filterRegistry))
	for t := range filterRegistry {
		types = append(types, t)
	}
	return types
}
