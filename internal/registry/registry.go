// Package registry maps module type names to constructors for input,
// filter, and output modules.
//
// Built-in modules register themselves in init. Additional types can be
// registered the same way without touching the factory:
//
//	func init() {
//	    registry.RegisterInput("parquet", func(cfg *adclean.ModuleConfig) (input.Module, error) {
//	        return NewParquetInput(cfg)
//	    })
//	}
package registry

import (
	"slices"
	"sync"

	"github.com/Molly503/paid-media/internal/modules/filter"
	"github.com/Molly503/paid-media/internal/modules/input"
	"github.com/Molly503/paid-media/internal/modules/output"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// InputConstructor creates an input module from configuration.
type InputConstructor func(cfg *adclean.ModuleConfig) (input.Module, error)

// FilterConstructor creates a filter module from configuration.
// index is the filter's position in the pipeline, used in error messages.
type FilterConstructor func(cfg adclean.ModuleConfig, index int) (filter.Module, error)

// OutputConstructor creates an output module from configuration.
type OutputConstructor func(cfg *adclean.ModuleConfig) (output.Module, error)

var (
	inputMu       sync.RWMutex
	inputRegistry = make(map[string]InputConstructor)

	filterMu       sync.RWMutex
	filterRegistry = make(map[string]FilterConstructor)

	outputMu       sync.RWMutex
	outputRegistry = make(map[string]OutputConstructor)
)

// RegisterInput registers an input constructor, replacing any previous one.
func RegisterInput(moduleType string, constructor InputConstructor) {
	inputMu.Lock()
	defer inputMu.Unlock()
	inputRegistry[moduleType] = constructor
}

// RegisterFilter registers a filter constructor, replacing any previous one.
func RegisterFilter(moduleType string, constructor FilterConstructor) {
	filterMu.Lock()
	defer filterMu.Unlock()
	filterRegistry[moduleType] = constructor
}

// RegisterOutput registers an output constructor, replacing any previous one.
func RegisterOutput(moduleType string, constructor OutputConstructor) {
	outputMu.Lock()
	defer outputMu.Unlock()
	outputRegistry[moduleType] = constructor
}

// GetInputConstructor returns the constructor for a type, or nil.
func GetInputConstructor(moduleType string) InputConstructor {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return inputRegistry[moduleType]
}

// GetFilterConstructor returns the constructor for a type, or nil.
func GetFilterConstructor(moduleType string) FilterConstructor {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return filterRegistry[moduleType]
}

// GetOutputConstructor returns the constructor for a type, or nil.
func GetOutputConstructor(moduleType string) OutputConstructor {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return outputRegistry[moduleType]
}

// ListInputTypes returns the registered input types, sorted.
func ListInputTypes() []string {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return sortedKeys(inputRegistry)
}

// ListFilterTypes returns the registered filter types, sorted.
func ListFilterTypes() []string {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return sortedKeys(filterRegistry)
}

// ListOutputTypes returns the registered output types, sorted.
func ListOutputTypes() []string {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return sortedKeys(outputRegistry)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ClearRegistries removes all registered constructors.
// This is intended for testing purposes only.
func ClearRegistries() {
	inputMu.Lock()
	inputRegistry = make(map[string]InputConstructor)
	inputMu.Unlock()

	filterMu.Lock()
	filterRegistry = make(map[string]FilterConstructor)
	filterMu.Unlock()

	outputMu.Lock()
	outputRegistry = make(map[string]OutputConstructor)
	outputMu.Unlock()
}
