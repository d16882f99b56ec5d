// Package factory instantiates input, filter, and output modules from
// configuration by looking up their constructors in the registry.
package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Molly503/paid-media/internal/modules/filter"
	"github.com/Molly503/paid-media/internal/modules/input"
	"github.com/Molly503/paid-media/internal/modules/output"
	"github.com/Molly503/paid-media/internal/registry"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// ErrUnknownModuleType is returned for a type with no registered constructor.
var ErrUnknownModuleType = errors.New("unknown module type")

// CreateInputModule creates the input module. A nil config yields a nil module.
func CreateInputModule(cfg *adclean.ModuleConfig) (input.Module, error) {
	if cfg == nil {
		return nil, nil
	}

	constructor := registry.GetInputConstructor(cfg.Type)
	if constructor == nil {
		return nil, unknownType("input", cfg.Type, registry.ListInputTypes())
	}
	module, err := constructor(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid %s input config: %w", cfg.Type, err)
	}
	return module, nil
}

// CreateFilterModules creates the preprocessing filters in order.
func CreateFilterModules(cfgs []adclean.ModuleConfig) ([]filter.Module, error) {
	if len(cfgs) == 0 {
		return nil, nil
	}

	modules := make([]filter.Module, 0, len(cfgs))
	for i, cfg := range cfgs {
		constructor := registry.GetFilterConstructor(cfg.Type)
		if constructor == nil {
			return nil, fmt.Errorf("filter at index %d: %w", i, unknownType("filter", cfg.Type, registry.ListFilterTypes()))
		}
		module, err := constructor(cfg, i)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, nil
}

// CreateOutputModule creates one output module. A nil config yields a nil module.
func CreateOutputModule(cfg *adclean.ModuleConfig) (output.Module, error) {
	if cfg == nil {
		return nil, nil
	}

	constructor := registry.GetOutputConstructor(cfg.Type)
	if constructor == nil {
		return nil, unknownType("output", cfg.Type, registry.ListOutputTypes())
	}
	module, err := constructor(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid %s output config: %w", cfg.Type, err)
	}
	return module, nil
}

// CreateOutputModules creates every output module. Modules already created
// are closed when a later one fails.
func CreateOutputModules(cfgs []adclean.ModuleConfig) ([]output.Module, error) {
	modules := make([]output.Module, 0, len(cfgs))
	for i := range cfgs {
		module, err := CreateOutputModule(&cfgs[i])
		if err != nil {
			_ = CloseOutputs(modules)
			return nil, fmt.Errorf("output at index %d: %w", i, err)
		}
		modules = append(modules, module)
	}
	return modules, nil
}

// CloseOutputs closes every module and joins the errors.
func CloseOutputs(modules []output.Module) error {
	var errs []error
	for _, m := range modules {
		if m == nil {
			continue
		}
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func unknownType(kind, moduleType string, known []string) error {
	return fmt.Errorf("%w: %s %q (registered: %s)", ErrUnknownModuleType, kind, moduleType, strings.Join(known, ", "))
}
