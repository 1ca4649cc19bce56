package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/muonstream/runtime/internal/modules/filter"
	"github.com/muonstream/runtime/internal/modules/source"
	"github.com/muonstream/runtime/internal/modules/writer"
	"github.com/muonstream/runtime/pkg/event"
	"github.com/muonstream/runtime/pkg/job"
)

// stubSource returns a fixed set of events.
type stubSource struct {
	events []event.Event
	err    error
	closed bool
}

func (s *stubSource) Fetch(_ context.Context) ([]event.Event, error) {
	return s.events, s.err
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

// stubFilter drops events with Number below the threshold.
type stubFilter struct {
	minNumber uint64
	err       error
}

func (f *stubFilter) Process(_ context.Context, events []event.Event) ([]event.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []event.Event
	for _, ev := range events {
		if ev.Number >= f.minNumber {
			out = append(out, ev)
		}
	}
	return out, nil
}

// stubWriter records what it was asked to write.
type stubWriter struct {
	written []event.Event
	err     error
	closed  bool
}

func (w *stubWriter) Write(_ context.Context, events []event.Event) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.written = append(w.written, events...)
	return len(events), nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

var (
	_ source.Module = (*stubSource)(nil)
	_ filter.Module = (*stubFilter)(nil)
	_ writer.Module = (*stubWriter)(nil)
)

func testConfig() *job.Config {
	return &job.Config{
		Name: "TestJob",
		Tier: job.TierPAT,
	}
}

func threeEvents() []event.Event {
	return []event.Event{{Number: 1}, {Number: 2}, {Number: 3}}
}

func TestExecute_Success(t *testing.T) {
	src := &stubSource{events: threeEvents()}
	w := &stubWriter{}
	e := NewExecutorWithModules(src, []filter.Module{&stubFilter{minNumber: 2}}, w, false)

	result, err := e.Execute(testConfig())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if result.Status != job.StatusSuccess {
		t.Errorf("expected status success, got %q", result.Status)
	}
	if result.EventsRead != 3 {
		t.Errorf("expected 3 events read, got %d", result.EventsRead)
	}
	if result.EventsPassed != 2 {
		t.Errorf("expected 2 events passed, got %d", result.EventsPassed)
	}
	if result.EventsWritten != 2 {
		t.Errorf("expected 2 events written, got %d", result.EventsWritten)
	}
	if len(w.written) != 2 {
		t.Errorf("expected writer to receive 2 events, got %d", len(w.written))
	}
	if !src.closed {
		t.Error("expected source to be closed")
	}
	if !w.closed {
		t.Error("expected writer to be closed")
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("expected completion time after start time")
	}
}

func TestExecute_DryRunSkipsWriter(t *testing.T) {
	w := &stubWriter{}
	e := NewExecutorWithModules(&stubSource{events: threeEvents()}, nil, w, true)

	result, err := e.Execute(testConfig())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if result.Status != job.StatusSuccess {
		t.Errorf("expected status success, got %q", result.Status)
	}
	if len(w.written) != 0 {
		t.Errorf("expected nothing written in dry-run, got %d", len(w.written))
	}
	if result.EventsWritten != 0 {
		t.Errorf("expected 0 events written in dry-run, got %d", result.EventsWritten)
	}
	if result.EventsPassed != 3 {
		t.Errorf("expected 3 events passed, got %d", result.EventsPassed)
	}
}

func TestExecute_NilConfig(t *testing.T) {
	e := NewExecutorWithModules(&stubSource{}, nil, &stubWriter{}, false)

	result, err := e.Execute(nil)
	if !errors.Is(err, ErrNilConfig) {
		t.Fatalf("expected ErrNilConfig, got %v", err)
	}
	if result.Error == nil || result.Error.Code != ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG error, got %+v", result.Error)
	}
}

func TestExecute_NilSource(t *testing.T) {
	e := NewExecutorWithModules(nil, nil, &stubWriter{}, false)

	_, err := e.Execute(testConfig())
	if !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestExecute_NilWriterAllowedInDryRun(t *testing.T) {
	e := NewExecutorWithModules(&stubSource{events: threeEvents()}, nil, nil, true)

	result, err := e.Execute(testConfig())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Status != job.StatusSuccess {
		t.Errorf("expected success without writer in dry-run, got %q", result.Status)
	}
}

func TestExecute_SourceFailure(t *testing.T) {
	src := &stubSource{err: errors.New("storage unreachable")}
	e := NewExecutorWithModules(src, nil, &stubWriter{}, false)

	result, err := e.Execute(testConfig())
	if err == nil {
		t.Fatal("expected error for source failure")
	}
	if result.Status != job.StatusError {
		t.Errorf("expected status error, got %q", result.Status)
	}
	if result.Error == nil || result.Error.Code != ErrCodeSourceFailed {
		t.Errorf("expected SOURCE_FAILED, got %+v", result.Error)
	}
	if !src.closed {
		t.Error("expected source to be closed on failure")
	}
}

func TestExecute_FilterFailure(t *testing.T) {
	e := NewExecutorWithModules(
		&stubSource{events: threeEvents()},
		[]filter.Module{&stubFilter{err: errors.New("bad expression")}},
		&stubWriter{},
		false,
	)

	result, err := e.Execute(testConfig())
	if err == nil {
		t.Fatal("expected error for filter failure")
	}
	if result.Error == nil || result.Error.Code != ErrCodeFilterFailed {
		t.Errorf("expected FILTER_FAILED, got %+v", result.Error)
	}
	if result.EventsRead != 3 {
		t.Errorf("expected events read to be recorded, got %d", result.EventsRead)
	}
}

func TestExecute_WriterFailure(t *testing.T) {
	w := &stubWriter{err: errors.New("disk full")}
	e := NewExecutorWithModules(&stubSource{events: threeEvents()}, nil, w, false)

	result, err := e.Execute(testConfig())
	if err == nil {
		t.Fatal("expected error for writer failure")
	}
	if result.Error == nil || result.Error.Code != ErrCodeWriterFailed {
		t.Errorf("expected WRITER_FAILED, got %+v", result.Error)
	}
	if !w.closed {
		t.Error("expected writer to be closed on failure")
	}
}

func TestExecute_FiltersRunInOrder(t *testing.T) {
	w := &stubWriter{}
	e := NewExecutorWithModules(
		&stubSource{events: threeEvents()},
		[]filter.Module{&stubFilter{minNumber: 2}, &stubFilter{minNumber: 3}},
		w,
		false,
	)

	result, err := e.Execute(testConfig())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.EventsPassed != 1 {
		t.Errorf("expected 1 event after both filters, got %d", result.EventsPassed)
	}
	if len(w.written) != 1 || w.written[0].Number != 3 {
		t.Errorf("expected only event 3 written, got %v", w.written)
	}
}

func TestNewExecutorFromConfig_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "events.jsonl")
	input := `{"event": 1, "muons": [{"pt": 25.0, "eta": 0.5, "isLooseID": true}]}
{"event": 2, "muons": [{"pt": 1.0, "eta": 0.5, "isLooseID": true}]}
{"event": 3}
`
	if err := os.WriteFile(inputPath, []byte(input), 0o644); err != nil {
		t.Fatalf("writing input file: %v", err)
	}
	outputPath := filepath.Join(dir, "out.root")

	cfg := &job.Config{
		Name: "EndToEnd",
		Tier: job.TierPAT,
		Source: job.ModuleConfig{
			Type:   "pool",
			Config: map[string]interface{}{"files": []string{inputPath}},
		},
		Path: []job.Step{
			{Name: "muonfilter", Module: job.ModuleConfig{Type: "PatMuonFilter"}},
		},
		EndPath: []job.Step{
			{Name: "out", Module: job.ModuleConfig{
				Type:   "pool",
				Config: map[string]interface{}{"fileName": outputPath},
			}},
		},
		MaxEvents:   -1,
		OutFilename: outputPath,
	}

	e, err := NewExecutorFromConfig(cfg, false)
	if err != nil {
		t.Fatalf("NewExecutorFromConfig returned error: %v", err)
	}

	result, err := e.Execute(cfg)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.EventsRead != 3 {
		t.Errorf("expected 3 events read, got %d", result.EventsRead)
	}
	if result.EventsPassed != 1 {
		t.Errorf("expected 1 event passed, got %d", result.EventsPassed)
	}
	if result.EventsWritten != 1 {
		t.Errorf("expected 1 event written, got %d", result.EventsWritten)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("expected output file to exist: %v", err)
	}
}

func TestNewExecutorFromConfig_UnknownModules(t *testing.T) {
	cfg := &job.Config{
		Name:   "Bad",
		Source: job.ModuleConfig{Type: "edm"},
		EndPath: []job.Step{
			{Name: "out", Module: job.ModuleConfig{Type: "pool",
				Config: map[string]interface{}{"fileName": "out.root"}}},
		},
	}
	if _, err := NewExecutorFromConfig(cfg, false); err == nil {
		t.Error("expected error for unknown source type")
	}

	cfg.Source = job.ModuleConfig{
		Type:   "pool",
		Config: map[string]interface{}{"files": []string{"in.jsonl"}},
	}
	cfg.Path = []job.Step{{Name: "x", Module: job.ModuleConfig{Type: "mapping"}}}
	if _, err := NewExecutorFromConfig(cfg, false); err == nil {
		t.Error("expected error for unknown filter type")
	}

	cfg.Path = nil
	cfg.EndPath = nil
	if _, err := NewExecutorFromConfig(cfg, false); err == nil {
		t.Error("expected error for missing end path")
	}
}
