// Package filter provides implementations for filter modules.
// The muon filter selects events with at least one identified muon and
// attaches loose/medium/tight collections with relative isolation.
package filter

import (
	"context"
	"log/slog"
	"math"

	"github.com/muonstream/runtime/internal/errhandling"
	"github.com/muonstream/runtime/internal/logger"
	"github.com/muonstream/runtime/pkg/event"
	"github.com/muonstream/runtime/pkg/job"
)

// Registered muon filter module names.
const (
	ModulePatMuonFilter  = "PatMuonFilter"
	ModuleRecoMuonFilter = "RecoMuonFilter"
)

// Default kinematic acceptance.
const (
	DefaultMinPt         = 2.0
	DefaultMaxAbsEta     = 3.0
	DefaultForwardAbsEta = 2.4
)

// ME0 matching cut values. The dPhi cuts are momentum dependent:
// clamp(num/p, num/100, cap).
const (
	me0DEtaLoose = 0.077
	me0DEtaTight = 0.048

	me0DPhiNum      = 1.2
	me0DPhiCapLoose = 0.056
	me0DPhiCapTight = 0.032

	me0DPhiBendNum      = 0.2
	me0DPhiBendCapLoose = 0.0096
	me0DPhiBendCapTight = 0.0041
)

// Impact parameter cuts used by the medium and tight working points.
const (
	maxDXY = 0.2
	maxDZ  = 0.5
)

// MuonFilterConfig represents the configuration for a muon filter module.
type MuonFilterConfig struct {
	// MinPt is the minimum transverse momentum in GeV.
	MinPt float64 `json:"minPt"`

	// MaxAbsEta is the pseudorapidity acceptance boundary.
	MaxAbsEta float64 `json:"maxAbsEta"`

	// ForwardAbsEta is the boundary beyond which ME0 recovery applies.
	ForwardAbsEta float64 `json:"forwardAbsEta"`
}

// DefaultMuonFilterConfig returns the default acceptance configuration.
func DefaultMuonFilterConfig() MuonFilterConfig {
	return MuonFilterConfig{
		MinPt:         DefaultMinPt,
		MaxAbsEta:     DefaultMaxAbsEta,
		ForwardAbsEta: DefaultForwardAbsEta,
	}
}

// ParseMuonFilterConfig extracts a MuonFilterConfig from a module
// configuration map. Missing fields keep their defaults.
func ParseMuonFilterConfig(m map[string]interface{}) (MuonFilterConfig, error) {
	cfg := DefaultMuonFilterConfig()
	if m == nil {
		return cfg, nil
	}
	if v, ok := floatFromConfig(m, "minPt"); ok {
		if v < 0 {
			return cfg, errhandling.NewValidationError("minPt must be non-negative, got %v", v)
		}
		cfg.MinPt = v
	}
	if v, ok := floatFromConfig(m, "maxAbsEta"); ok {
		if v <= 0 {
			return cfg, errhandling.NewValidationError("maxAbsEta must be positive, got %v", v)
		}
		cfg.MaxAbsEta = v
	}
	if v, ok := floatFromConfig(m, "forwardAbsEta"); ok {
		if v <= 0 || v > cfg.MaxAbsEta {
			return cfg, errhandling.NewValidationError("forwardAbsEta must be in (0, maxAbsEta], got %v", v)
		}
		cfg.ForwardAbsEta = v
	}
	return cfg, nil
}

// MuonFilter selects events with at least one loose muon. PAT-tier input
// carries precomputed ID decisions; RECO-tier input carries only track
// quantities and the filter derives the decisions. In the forward region
// both tiers recover muons through ME0 segment matching.
type MuonFilter struct {
	tier job.Tier
	cfg  MuonFilterConfig
}

// NewPatMuonFilter creates the muon filter for PAT-tier input.
func NewPatMuonFilter(cfg MuonFilterConfig) *MuonFilter {
	return &MuonFilter{tier: job.TierPAT, cfg: cfg}
}

// NewRecoMuonFilter creates the muon filter for RECO-tier input.
func NewRecoMuonFilter(cfg MuonFilterConfig) *MuonFilter {
	return &MuonFilter{tier: job.TierRECO, cfg: cfg}
}

// Name returns the registered module name for this filter's tier.
func (f *MuonFilter) Name() string {
	if f.tier == job.TierRECO {
		return ModuleRecoMuonFilter
	}
	return ModulePatMuonFilter
}

// Process evaluates every event and returns those with at least one
// loose muon, with the selected-muon collections attached.
func (f *MuonFilter) Process(ctx context.Context, events []event.Event) ([]event.Event, error) {
	passed := make([]event.Event, 0, len(events))
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev := events[i]
		f.selectMuons(&ev)
		if len(ev.LooseMuons) > 0 {
			passed = append(passed, ev)
		}
	}

	logger.Debug("muon filter processed batch",
		slog.String("module_name", f.Name()),
		slog.Int("events_in", len(events)),
		slog.Int("events_passed", len(passed)),
	)
	return passed, nil
}

// selectMuons fills the event's loose/medium/tight collections.
func (f *MuonFilter) selectMuons(ev *event.Event) {
	_, hasPV := ev.PrimaryVertex()

	ev.LooseMuons = nil
	ev.MediumMuons = nil
	ev.TightMuons = nil

	for _, m := range ev.Muons {
		if m.Pt < f.cfg.MinPt {
			continue
		}
		absEta := math.Abs(m.Eta)
		if absEta > f.cfg.MaxAbsEta {
			continue
		}

		var loose, medium, tight bool
		if f.tier == job.TierRECO {
			loose, medium, tight = recoDecisions(m, hasPV)
		} else {
			loose, medium, tight = patDecisions(m, hasPV)
		}

		forward := absEta > f.cfg.ForwardAbsEta
		if forward {
			loose = loose || looseME0(m)
			medium = medium || mediumME0(m)
			tight = tight || tightME0(m)
		}

		sel := event.SelectedMuon{Muon: m, RelIso: m.RelIso()}
		if loose {
			ev.LooseMuons = append(ev.LooseMuons, sel)
		}
		if medium {
			ev.MediumMuons = append(ev.MediumMuons, sel)
		}
		if tight {
			ev.TightMuons = append(ev.TightMuons, sel)
		}
	}
}

// patDecisions returns the precomputed PAT working points. Tight
// additionally requires a usable primary vertex.
func patDecisions(m event.Muon, hasPV bool) (loose, medium, tight bool) {
	return m.IsLooseID, m.IsMediumID, hasPV && m.IsTightID
}

// recoDecisions derives the working points from track quality, since the
// RECO tier has no precomputed decisions.
func recoDecisions(m event.Muon, hasPV bool) (loose, medium, tight bool) {
	loose = m.ValidPixelHits > 0 || m.HighPurityTrack
	medium = loose && m.HighPurityTrack && math.Abs(m.DXY) < maxDXY
	tight = medium && hasPV && m.ValidPixelHits > 0 && math.Abs(m.DZ) < maxDZ
	return loose, medium, tight
}

// trackQualityOK is the track requirement shared by the medium and tight
// ME0 working points.
func trackQualityOK(m event.Muon) bool {
	return math.Abs(m.DXY) < maxDXY && m.ValidPixelHits > 0 && m.HighPurityTrack
}

func looseME0(m event.Muon) bool {
	p := m.P()
	return me0Match(m, me0DEtaLoose,
		clamp(me0DPhiNum/p, me0DPhiNum/100, me0DPhiCapLoose),
		clamp(me0DPhiBendNum/p, me0DPhiBendNum/100, me0DPhiBendCapLoose))
}

// mediumME0 is the loose ME0 match with track requirements added.
func mediumME0(m event.Muon) bool {
	return looseME0(m) && trackQualityOK(m)
}

func tightME0(m event.Muon) bool {
	p := m.P()
	return me0Match(m, me0DEtaTight,
		clamp(me0DPhiNum/p, me0DPhiNum/100, me0DPhiCapTight),
		clamp(me0DPhiBendNum/p, me0DPhiBendNum/100, me0DPhiBendCapTight)) &&
		trackQualityOK(m) && math.Abs(m.DZ) < maxDZ
}

// me0Match checks the segment matching residuals against the cuts.
// Muons without an ME0 match never pass.
func me0Match(m event.Muon, dEtaCut, dPhiCut, dPhiBendCut float64) bool {
	if m.ME0 == nil {
		return false
	}
	return m.ME0.DeltaEta < dEtaCut &&
		m.ME0.DeltaPhi < dPhiCut &&
		m.ME0.DeltaPhiBend < dPhiBendCut
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// floatFromConfig reads a numeric config value that may arrive as int
// (YAML) or float64 (JSON).
func floatFromConfig(m map[string]interface{}, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Verify MuonFilter implements Module.
var _ Module = (*MuonFilter)(nil)
