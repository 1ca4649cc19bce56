package config

import (
	"fmt"

	"github.com/muonstream/runtime/pkg/job"
)

// ConvertToSpec converts parsed job file data to a job.Spec. The input
// data should have been validated against the schema before calling
// this function.
//
// The job file is expected to have this structure:
//
//	{
//	  "job": {
//	    "name": "...",
//	    "inputFormat": "PAT",
//	    "outFilename": "...",
//	    "inputFiles": [...],
//	    "maxEvents": -1,
//	    "reportEvery": 1000,
//	    "logging": {"threshold": "info"},
//	    "filters": [...]
//	  }
//	}
func ConvertToSpec(data map[string]interface{}) (*job.Spec, error) {
	if data == nil {
		return nil, fmt.Errorf("job file data is nil")
	}

	jobData, ok := data["job"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'job' section")
	}

	spec := &job.Spec{
		Options: job.DefaultOptions(),
	}

	if name, okName := jobData["name"].(string); okName {
		spec.Name = name
	}
	if description, okDesc := jobData["description"].(string); okDesc {
		spec.Description = description
	}

	if inputFormat, okFmt := jobData["inputFormat"].(string); okFmt {
		spec.Options.InputFormat = inputFormat
	}
	if outFilename, okOut := jobData["outFilename"].(string); okOut {
		spec.Options.OutFilename = outFilename
	}
	if lenient, okLenient := jobData["lenientFormat"].(bool); okLenient {
		spec.Options.LenientFormat = lenient
	}
	if loggingData, okLog := jobData["logging"].(map[string]interface{}); okLog {
		if threshold, okThr := loggingData["threshold"].(string); okThr {
			spec.Options.LogThreshold = threshold
		}
	}

	if maxEvents, okMax := toInt(jobData["maxEvents"]); okMax {
		spec.Options.MaxEvents = maxEvents
	}
	if reportEvery, okReport := toInt(jobData["reportEvery"]); okReport {
		spec.Options.ReportEvery = reportEvery
	}

	if filesData, okFiles := jobData["inputFiles"].([]interface{}); okFiles {
		for i, fileData := range filesData {
			file, isString := fileData.(string)
			if !isString {
				return nil, fmt.Errorf("invalid input file at index %d: expected string, got %T", i, fileData)
			}
			spec.Options.InputFiles = append(spec.Options.InputFiles, file)
		}
	}

	if filtersData, okFilters := jobData["filters"].([]interface{}); okFilters {
		for i, filterData := range filtersData {
			filterMap, isMap := filterData.(map[string]interface{})
			if !isMap {
				return nil, fmt.Errorf("invalid filter at index %d", i)
			}
			filterConfig, err := convertFilterConfig(filterMap)
			if err != nil {
				return nil, fmt.Errorf("invalid filter at index %d: %w", i, err)
			}
			spec.Options.ExtraFilters = append(spec.Options.ExtraFilters, *filterConfig)
		}
	}

	return spec, nil
}

// convertFilterConfig converts a raw filter configuration map to a
// ModuleConfig.
func convertFilterConfig(data map[string]interface{}) (*job.ModuleConfig, error) {
	moduleType, ok := data["type"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	moduleConfig := &job.ModuleConfig{
		Type:   moduleType,
		Config: make(map[string]interface{}),
	}

	if config, okConfig := data["config"].(map[string]interface{}); okConfig {
		for key, value := range config {
			moduleConfig.Config[key] = value
		}
	}

	return moduleConfig, nil
}

// toInt coerces a decoded numeric value to int. JSON decoding produces
// float64, YAML decoding produces int.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
