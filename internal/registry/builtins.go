package registry

import (
	"fmt"

	"github.com/Molly503/paid-media/internal/modules/filter"
	"github.com/Molly503/paid-media/internal/modules/input"
	"github.com/Molly503/paid-media/internal/modules/output"
	"github.com/Molly503/paid-media/pkg/adclean"
)

func init() {
	RegisterBuiltins()
}

// RegisterBuiltins registers the built-in module types:
// inputs csv and sqlite; filters range, minimum, condition, derive,
// adMetrics, and remove; outputs csv and sqlite.
func RegisterBuiltins() {
	registerBuiltinInputModules()
	registerBuiltinFilterModules()
	registerBuiltinOutputModules()
}

func registerBuiltinInputModules() {
	RegisterInput("csv", func(cfg *adclean.ModuleConfig) (input.Module, error) {
		module, err := input.NewCSVInputFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return module, nil
	})

	RegisterInput("sqlite", func(cfg *adclean.ModuleConfig) (input.Module, error) {
		module, err := input.NewSQLiteInputFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return module, nil
	})
}

func registerBuiltinFilterModules() {
	RegisterFilter("range", func(cfg adclean.ModuleConfig, index int) (filter.Module, error) {
		rangeConfig, err := filter.ParseRangeConfig(cfg.Config)
		if err != nil {
			return nil, configError("range", index, err)
		}
		module, err := filter.NewRangeFromConfig(rangeConfig)
		if err != nil {
			return nil, configError("range", index, err)
		}
		return module, nil
	})

	RegisterFilter("minimum", func(cfg adclean.ModuleConfig, index int) (filter.Module, error) {
		module, err := filter.NewMinimumFromConfig(filter.ParseMinimumConfig(cfg.Config))
		if err != nil {
			return nil, configError("minimum", index, err)
		}
		return module, nil
	})

	RegisterFilter("condition", func(cfg adclean.ModuleConfig, index int) (filter.Module, error) {
		module, err := filter.NewConditionFromConfig(filter.ParseConditionConfig(cfg.Config))
		if err != nil {
			return nil, configError("condition", index, err)
		}
		return module, nil
	})

	RegisterFilter("derive", func(cfg adclean.ModuleConfig, index int) (filter.Module, error) {
		deriveConfig, err := filter.ParseDeriveConfig(cfg.Config)
		if err != nil {
			return nil, configError("derive", index, err)
		}
		module, err := filter.NewDeriveFromConfig(deriveConfig)
		if err != nil {
			return nil, configError("derive", index, err)
		}
		return module, nil
	})

	// adMetrics - derive preset computing CTR, CPC, CPM, CPA, ROAS and friends
	RegisterFilter("adMetrics", func(cfg adclean.ModuleConfig, index int) (filter.Module, error) {
		module, err := filter.NewAdMetricsFromConfig(filter.ParseAdMetricsConfig(cfg.Config))
		if err != nil {
			return nil, configError("adMetrics", index, err)
		}
		return module, nil
	})

	RegisterFilter("remove", func(cfg adclean.ModuleConfig, index int) (filter.Module, error) {
		removeConfig, err := filter.ParseRemoveConfig(cfg.Config)
		if err != nil {
			return nil, configError("remove", index, err)
		}
		module, err := filter.NewRemoveFromConfig(removeConfig)
		if err != nil {
			return nil, configError("remove", index, err)
		}
		return module, nil
	})
}

func registerBuiltinOutputModules() {
	RegisterOutput("csv", func(cfg *adclean.ModuleConfig) (output.Module, error) {
		module, err := output.NewCSVOutputFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return module, nil
	})

	RegisterOutput("sqlite", func(cfg *adclean.ModuleConfig) (output.Module, error) {
		module, err := output.NewSQLiteOutputFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return module, nil
	})
}

func configError(moduleType string, index int, err error) error {
	return fmt.Errorf("invalid %s config at index %d: %w", moduleType, index, err)
}
