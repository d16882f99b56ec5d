package config

import (
	"encoding/json"
	"fmt"

	"github.com/Molly503/paid-media/pkg/adclean"
)

// ConvertToPipeline converts parsed configuration data to a Pipeline.
// Sections left out of the configuration keep the values of DefaultPipeline.
//
// The configuration is expected to have this structure:
//
//	{
//	  "schemaVersion": "1.0.0",
//	  "pipeline": {
//	    "name": "...",
//	    "version": "...",
//	    "input": {...},
//	    "filters": [...],
//	    "cleaning": {"columns": {...}, "thresholds": {...}, "fallback": {...}},
//	    "outputs": [...],
//	    "report": {...}
//	  }
//	}
func ConvertToPipeline(data map[string]interface{}) (*adclean.Pipeline, error) {
	if data == nil {
		return nil, fmt.Errorf("configuration data is nil")
	}

	pipelineData, ok := data["pipeline"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'pipeline' section")
	}

	pipeline := DefaultPipeline()

	name, ok := pipelineData["name"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'pipeline.name'")
	}
	pipeline.Name = name
	pipeline.ID = name

	version, ok := pipelineData["version"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'pipeline.version'")
	}
	pipeline.Version = version

	if id, ok := pipelineData["id"].(string); ok {
		pipeline.ID = id
	}
	if description, ok := pipelineData["description"].(string); ok {
		pipeline.Description = description
	}

	if inputData, ok := pipelineData["input"].(map[string]interface{}); ok {
		inputConfig, err := convertModuleConfig(inputData)
		if err != nil {
			return nil, fmt.Errorf("invalid input config: %w", err)
		}
		pipeline.Input = inputConfig
	}

	if filtersData, ok := pipelineData["filters"].([]interface{}); ok {
		modules, err := convertModuleList(filtersData, "filter")
		if err != nil {
			return nil, err
		}
		pipeline.Filters = modules
	}

	if outputsData, ok := pipelineData["outputs"].([]interface{}); ok {
		modules, err := convertModuleList(outputsData, "output")
		if err != nil {
			return nil, err
		}
		pipeline.Outputs = modules
	}

	if cleaningData, ok := pipelineData["cleaning"].(map[string]interface{}); ok {
		if err := convertCleaning(cleaningData, &pipeline.Cleaning); err != nil {
			return nil, fmt.Errorf("invalid cleaning config: %w", err)
		}
	}

	if reportData, ok := pipelineData["report"].(map[string]interface{}); ok {
		if err := overlay(reportData, &pipeline.Report); err != nil {
			return nil, fmt.Errorf("invalid report config: %w", err)
		}
	}

	return pipeline, nil
}

func convertModuleList(items []interface{}, kind string) ([]adclean.ModuleConfig, error) {
	modules := make([]adclean.ModuleConfig, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid %s at index %d", kind, i)
		}
		cfg, err := convertModuleConfig(m)
		if err != nil {
			return nil, fmt.Errorf("invalid %s at index %d: %w", kind, i, err)
		}
		modules = append(modules, *cfg)
	}
	return modules, nil
}

// convertModuleConfig copies every key except "type" into the module config.
func convertModuleConfig(data map[string]interface{}) (*adclean.ModuleConfig, error) {
	moduleType, ok := data["type"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	cfg := &adclean.ModuleConfig{
		Type:   moduleType,
		Config: make(map[string]interface{}, len(data)),
	}
	for key, value := range data {
		if key != "type" {
			cfg.Config[key] = value
		}
	}
	return cfg, nil
}

// convertCleaning overlays the cleaning section on the defaults. Fallback
// thresholds start from the backup bounds, not the primary ones.
func convertCleaning(data map[string]interface{}, cleaning *adclean.Cleaning) error {
	if columns, ok := data["columns"]; ok {
		if err := overlay(columns, &cleaning.Columns); err != nil {
			return fmt.Errorf("columns: %w", err)
		}
	}
	if thresholds, ok := data["thresholds"]; ok {
		if err := overlay(thresholds, &cleaning.Thresholds); err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
	}
	if fallback, ok := data["fallback"]; ok {
		fb := adclean.DefaultFallback()
		if err := overlay(fallback, fb); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
		cleaning.Fallback = fb
	}
	return nil
}

// overlay decodes src onto dst through JSON, leaving absent fields untouched.
func overlay(src interface{}, dst interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
