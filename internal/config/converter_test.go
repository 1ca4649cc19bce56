package config

import (
	"testing"

	"github.com/muonstream/runtime/pkg/job"
)

func TestConvertToSpec_FullJob(t *testing.T) {
	data := map[string]interface{}{
		"job": map[string]interface{}{
			"name":          "RecoSkim",
			"description":   "RECO skim",
			"inputFormat":   "reco",
			"outFilename":   "Skim.root",
			"maxEvents":     float64(5000),
			"reportEvery":   float64(500),
			"lenientFormat": true,
			"logging": map[string]interface{}{
				"threshold": "debug",
			},
			"inputFiles": []interface{}{
				"/store/test/file1.root",
				"/store/test/file2.root",
			},
			"filters": []interface{}{
				map[string]interface{}{
					"type": "cut",
					"config": map[string]interface{}{
						"expression": "len(TightMuons) > 0",
					},
				},
			},
		},
	}

	spec, err := ConvertToSpec(data)
	if err != nil {
		t.Fatalf("ConvertToSpec returned error: %v", err)
	}

	if spec.Name != "RecoSkim" {
		t.Errorf("expected name 'RecoSkim', got %q", spec.Name)
	}
	if spec.Description != "RECO skim" {
		t.Errorf("expected description 'RECO skim', got %q", spec.Description)
	}
	if spec.Options.InputFormat != "reco" {
		t.Errorf("expected inputFormat 'reco', got %q", spec.Options.InputFormat)
	}
	if spec.Options.OutFilename != "Skim.root" {
		t.Errorf("expected outFilename 'Skim.root', got %q", spec.Options.OutFilename)
	}
	if spec.Options.MaxEvents != 5000 {
		t.Errorf("expected maxEvents 5000, got %d", spec.Options.MaxEvents)
	}
	if spec.Options.ReportEvery != 500 {
		t.Errorf("expected reportEvery 500, got %d", spec.Options.ReportEvery)
	}
	if !spec.Options.LenientFormat {
		t.Error("expected lenientFormat to be true")
	}
	if spec.Options.LogThreshold != "debug" {
		t.Errorf("expected log threshold 'debug', got %q", spec.Options.LogThreshold)
	}
	if len(spec.Options.InputFiles) != 2 {
		t.Fatalf("expected 2 input files, got %d", len(spec.Options.InputFiles))
	}
	if len(spec.Options.ExtraFilters) != 1 {
		t.Fatalf("expected 1 extra filter, got %d", len(spec.Options.ExtraFilters))
	}
	if spec.Options.ExtraFilters[0].Type != "cut" {
		t.Errorf("expected filter type 'cut', got %q", spec.Options.ExtraFilters[0].Type)
	}
	if expr := spec.Options.ExtraFilters[0].Config["expression"]; expr != "len(TightMuons) > 0" {
		t.Errorf("expected filter expression to be carried over, got %v", expr)
	}
}

func TestConvertToSpec_DefaultsApplied(t *testing.T) {
	data := map[string]interface{}{
		"job": map[string]interface{}{
			"name": "Minimal",
		},
	}

	spec, err := ConvertToSpec(data)
	if err != nil {
		t.Fatalf("ConvertToSpec returned error: %v", err)
	}

	want := job.DefaultOptions()
	if spec.Options.OutFilename != want.OutFilename {
		t.Errorf("expected default outFilename %q, got %q", want.OutFilename, spec.Options.OutFilename)
	}
	if spec.Options.InputFormat != want.InputFormat {
		t.Errorf("expected default inputFormat %q, got %q", want.InputFormat, spec.Options.InputFormat)
	}
	if spec.Options.MaxEvents != want.MaxEvents {
		t.Errorf("expected default maxEvents %d, got %d", want.MaxEvents, spec.Options.MaxEvents)
	}
	if spec.Options.ReportEvery != want.ReportEvery {
		t.Errorf("expected default reportEvery %d, got %d", want.ReportEvery, spec.Options.ReportEvery)
	}
}

func TestConvertToSpec_NilData(t *testing.T) {
	if _, err := ConvertToSpec(nil); err == nil {
		t.Error("expected error for nil data")
	}
}

func TestConvertToSpec_MissingJobSection(t *testing.T) {
	if _, err := ConvertToSpec(map[string]interface{}{"other": true}); err == nil {
		t.Error("expected error for missing job section")
	}
}

func TestConvertToSpec_InvalidFilterEntry(t *testing.T) {
	data := map[string]interface{}{
		"job": map[string]interface{}{
			"name":    "Bad",
			"filters": []interface{}{"not-a-map"},
		},
	}

	if _, err := ConvertToSpec(data); err == nil {
		t.Error("expected error for non-map filter entry")
	}
}

func TestConvertToSpec_FilterWithoutType(t *testing.T) {
	data := map[string]interface{}{
		"job": map[string]interface{}{
			"name": "Bad",
			"filters": []interface{}{
				map[string]interface{}{"config": map[string]interface{}{}},
			},
		},
	}

	if _, err := ConvertToSpec(data); err == nil {
		t.Error("expected error for filter without type")
	}
}

func TestConvertToSpec_InvalidInputFileEntry(t *testing.T) {
	data := map[string]interface{}{
		"job": map[string]interface{}{
			"name":       "Bad",
			"inputFiles": []interface{}{42},
		},
	}

	if _, err := ConvertToSpec(data); err == nil {
		t.Error("expected error for non-string input file")
	}
}
