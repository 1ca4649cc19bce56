// Package registry provides module registries for the muonstream
// runtime. This file registers all built-in modules during
// initialization.
package registry

import (
	"fmt"

	"github.com/muonstream/runtime/internal/modules/filter"
	"github.com/muonstream/runtime/internal/modules/source"
	"github.com/muonstream/runtime/internal/modules/writer"
	"github.com/muonstream/runtime/pkg/job"
)

func init() {
	registerBuiltinSourceModules()
	registerBuiltinFilterModules()
	registerBuiltinWriterModules()
}

// registerBuiltinSourceModules registers all built-in source types.
func registerBuiltinSourceModules() {
	// pool - JSON-lines event container reader
	RegisterSource("pool", func(cfg job.ModuleConfig) (source.Module, error) {
		return source.NewPoolFromConfig(cfg)
	})
}

// registerBuiltinFilterModules registers all built-in filter types.
func registerBuiltinFilterModules() {
	// PatMuonFilter - muon selection on the PAT tier
	RegisterFilter(filter.ModulePatMuonFilter, func(cfg job.ModuleConfig, index int) (filter.Module, error) {
		muonCfg, err := filter.ParseMuonFilterConfig(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("invalid %s config at index %d: %w", filter.ModulePatMuonFilter, index, err)
		}
		return filter.NewPatMuonFilter(muonCfg), nil
	})

	// RecoMuonFilter - muon selection on the RECO tier
	RegisterFilter(filter.ModuleRecoMuonFilter, func(cfg job.ModuleConfig, index int) (filter.Module, error) {
		muonCfg, err := filter.ParseMuonFilterConfig(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("invalid %s config at index %d: %w", filter.ModuleRecoMuonFilter, index, err)
		}
		return filter.NewRecoMuonFilter(muonCfg), nil
	})

	// cut - selection expression filter
	RegisterFilter("cut", func(cfg job.ModuleConfig, index int) (filter.Module, error) {
		cutCfg, err := filter.ParseCutConfig(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("invalid cut config at index %d: %w", index, err)
		}
		module, err := filter.NewCutFromConfig(cutCfg)
		if err != nil {
			return nil, fmt.Errorf("invalid cut config at index %d: %w", index, err)
		}
		return module, nil
	})

	// script - JavaScript selection filter using Goja
	RegisterFilter("script", func(cfg job.ModuleConfig, index int) (filter.Module, error) {
		scriptCfg, err := filter.ParseScriptConfig(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("invalid script config at index %d: %w", index, err)
		}
		module, err := filter.NewScriptFromConfig(scriptCfg)
		if err != nil {
			return nil, fmt.Errorf("invalid script config at index %d: %w", index, err)
		}
		return module, nil
	})
}

// registerBuiltinWriterModules registers all built-in writer types.
func registerBuiltinWriterModules() {
	// pool - JSON-lines event container writer
	RegisterWriter("pool", func(cfg job.ModuleConfig) (writer.Module, error) {
		return writer.NewPoolFromConfig(cfg)
	})
}
