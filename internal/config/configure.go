package config

import (
	"fmt"

	"github.com/muonstream/runtime/internal/modules/filter"
	"github.com/muonstream/runtime/internal/pathutil"
	"github.com/muonstream/runtime/pkg/job"
)

// DefaultJobName is the process name used when none is supplied.
const DefaultJobName = "MuonFilter"

// tierFilters maps each data tier to its muon filter module. The
// mapping is closed: a tier outside this map cannot be produced by
// ParseTier or TierOrDefault.
var tierFilters = map[job.Tier]string{
	job.TierPAT:  filter.ModulePatMuonFilter,
	job.TierRECO: filter.ModuleRecoMuonFilter,
}

// Configure assembles a complete job configuration from run options:
// it resolves the data tier, selects the tier's input dataset and muon
// filter module, and wires the linear path ending in the output writer.
// The returned Config is immutable; nothing mutates it after this
// function returns.
func Configure(name string, opts job.Options) (*job.Config, error) {
	if name == "" {
		name = DefaultJobName
	}

	outFilename := opts.OutFilename
	if outFilename == "" {
		outFilename = job.DefaultOutFilename
	}
	if err := pathutil.ValidateOutputFilename(outFilename); err != nil {
		return nil, fmt.Errorf("invalid output filename: %w", err)
	}

	inputFormat := opts.InputFormat
	if inputFormat == "" {
		inputFormat = job.DefaultInputFormat
	}

	var tier job.Tier
	if opts.LenientFormat {
		tier = job.TierOrDefault(inputFormat)
	} else {
		var err error
		tier, err = job.ParseTier(inputFormat)
		if err != nil {
			return nil, err
		}
	}

	filterModule, ok := tierFilters[tier]
	if !ok {
		return nil, fmt.Errorf("no muon filter registered for tier %s", tier)
	}

	inputFiles := opts.InputFiles
	if len(inputFiles) == 0 {
		inputFiles = DefaultDataset(tier)
	}

	// Options carry the defaults already (DefaultOptions, converter,
	// flag defaults), so the values are taken at face value here:
	// maxEvents 0 means process zero events, not "unset".
	maxEvents := opts.MaxEvents
	if maxEvents < -1 {
		return nil, fmt.Errorf("invalid maxEvents %d: must be -1 (unbounded) or non-negative", maxEvents)
	}

	reportEvery := opts.ReportEvery
	if reportEvery < 1 {
		return nil, fmt.Errorf("invalid reportEvery %d: must be at least 1", reportEvery)
	}

	logThreshold := opts.LogThreshold
	if logThreshold == "" {
		logThreshold = "info"
	}

	cfg := &job.Config{
		Name: name,
		Tier: tier,
		Source: job.ModuleConfig{
			Type: "pool",
			Config: map[string]interface{}{
				"files":       inputFiles,
				"maxEvents":   maxEvents,
				"reportEvery": reportEvery,
				"jobName":     name,
			},
		},
		Path: []job.Step{
			{
				Name:   "muonfilter",
				Module: job.ModuleConfig{Type: filterModule},
			},
		},
		EndPath: []job.Step{
			{
				Name: "out",
				Module: job.ModuleConfig{
					Type: "pool",
					Config: map[string]interface{}{
						"fileName": outFilename,
					},
				},
			},
		},
		Logging: job.LoggingConfig{
			Threshold:   logThreshold,
			Limit:       -1,
			ReportEvery: reportEvery,
		},
		MaxEvents:   maxEvents,
		OutFilename: outFilename,
	}

	for i, extra := range opts.ExtraFilters {
		if extra.Type == "" {
			return nil, fmt.Errorf("extra filter at index %d has no type", i)
		}
		cfg.Path = append(cfg.Path, job.Step{
			Name:   fmt.Sprintf("filter%d", i+1),
			Module: extra,
		})
	}

	return cfg, nil
}

// ConfigureFromSpec assembles a job configuration from a declarative
// job spec, as produced by ConvertToSpec.
func ConfigureFromSpec(spec *job.Spec) (*job.Config, error) {
	if spec == nil {
		return nil, fmt.Errorf("job spec is nil")
	}
	return Configure(spec.Name, spec.Options)
}
