package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/muonstream/runtime/pkg/job"
)

// writeEventsFile writes a JSON-lines container file and returns its path.
func writeEventsFile(t *testing.T, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing events file: %v", err)
	}
	return path
}

func poolModule(t *testing.T, config map[string]interface{}) *PoolModule {
	t.Helper()
	m, err := NewPoolFromConfig(job.ModuleConfig{Type: "pool", Config: config})
	if err != nil {
		t.Fatalf("NewPoolFromConfig returned error: %v", err)
	}
	return m
}

func TestPoolFetch(t *testing.T) {
	path := writeEventsFile(t, "events.jsonl", []string{
		`{"run": 1, "event": 100, "muons": [{"pt": 25.0, "eta": 0.5}]}`,
		`{"run": 1, "event": 101, "muons": []}`,
		`{"run": 1, "event": 102}`,
	})

	m := poolModule(t, map[string]interface{}{"files": []string{path}})
	events, err := m.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Number != 100 {
		t.Errorf("expected first event number 100, got %d", events[0].Number)
	}
	if len(events[0].Muons) != 1 || events[0].Muons[0].Pt != 25.0 {
		t.Errorf("expected one muon with pt 25.0, got %v", events[0].Muons)
	}
}

func TestPoolFetch_SkipsBlankLines(t *testing.T) {
	path := writeEventsFile(t, "events.jsonl", []string{
		`{"run": 1, "event": 1}`,
		``,
		`{"run": 1, "event": 2}`,
	})

	m := poolModule(t, map[string]interface{}{"files": []string{path}})
	events, err := m.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestPoolFetch_MaxEventsCap(t *testing.T) {
	path := writeEventsFile(t, "events.jsonl", []string{
		`{"event": 1}`, `{"event": 2}`, `{"event": 3}`, `{"event": 4}`,
	})

	m := poolModule(t, map[string]interface{}{
		"files":     []string{path},
		"maxEvents": 2,
	})
	events, err := m.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected maxEvents to cap at 2 events, got %d", len(events))
	}
}

func TestPoolFetch_ZeroMaxEventsReadsNothing(t *testing.T) {
	path := writeEventsFile(t, "events.jsonl", []string{`{"event": 1}`, `{"event": 2}`})

	m := poolModule(t, map[string]interface{}{
		"files":     []string{path},
		"maxEvents": 0,
	})
	events, err := m.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected maxEvents 0 to read no events, got %d", len(events))
	}
}

func TestPoolFetch_MultipleFilesInOrder(t *testing.T) {
	first := writeEventsFile(t, "first.jsonl", []string{`{"event": 1}`})
	second := writeEventsFile(t, "second.jsonl", []string{`{"event": 2}`})

	m := poolModule(t, map[string]interface{}{"files": []string{first, second}})
	events, err := m.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Number != 1 || events[1].Number != 2 {
		t.Errorf("expected events in file order, got %d then %d", events[0].Number, events[1].Number)
	}
}

func TestPoolFetch_MalformedLine(t *testing.T) {
	path := writeEventsFile(t, "events.jsonl", []string{
		`{"event": 1}`,
		`{not json`,
	})

	m := poolModule(t, map[string]interface{}{"files": []string{path}})
	if _, err := m.Fetch(context.Background()); err == nil {
		t.Error("expected error for malformed event line")
	}
}

func TestPoolFetch_CanceledContext(t *testing.T) {
	path := writeEventsFile(t, "events.jsonl", []string{`{"event": 1}`})

	m := poolModule(t, map[string]interface{}{"files": []string{path}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Fetch(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestParsePoolConfig(t *testing.T) {
	cfg, err := ParsePoolConfig(map[string]interface{}{
		"files":       []interface{}{"a.jsonl", "b.jsonl"},
		"maxEvents":   float64(10),
		"reportEvery": float64(5),
		"jobName":     "TestJob",
	})
	if err != nil {
		t.Fatalf("ParsePoolConfig returned error: %v", err)
	}

	if len(cfg.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(cfg.Files))
	}
	if cfg.MaxEvents != 10 {
		t.Errorf("expected maxEvents 10, got %d", cfg.MaxEvents)
	}
	if cfg.ReportEvery != 5 {
		t.Errorf("expected reportEvery 5, got %d", cfg.ReportEvery)
	}
	if cfg.JobName != "TestJob" {
		t.Errorf("expected jobName 'TestJob', got %q", cfg.JobName)
	}
}

func TestParsePoolConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]interface{}
	}{
		{
			name:   "missing files",
			config: map[string]interface{}{},
		},
		{
			name:   "empty files",
			config: map[string]interface{}{"files": []interface{}{}},
		},
		{
			name:   "non-string file",
			config: map[string]interface{}{"files": []interface{}{42}},
		},
		{
			name: "non-positive reportEvery",
			config: map[string]interface{}{
				"files":       []interface{}{"a.jsonl"},
				"reportEvery": float64(0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePoolConfig(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewPoolFromConfig_RejectsTraversal(t *testing.T) {
	_, err := NewPoolFromConfig(job.ModuleConfig{
		Type:   "pool",
		Config: map[string]interface{}{"files": []string{"../outside.jsonl"}},
	})
	if err == nil {
		t.Error("expected error for path traversal in input file")
	}
}
