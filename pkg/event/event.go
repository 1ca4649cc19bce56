// Package event defines the event data model shared by source, filter,
// and writer modules. Events are stored on disk as JSON lines, one event
// per line; the field names below are the container format.
package event

import "math"

// Vertex is a reconstructed interaction vertex.
type Vertex struct {
	// X, Y, Z are the vertex position coordinates in cm.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// NDOF is the number of degrees of freedom of the vertex fit.
	NDOF float64 `json:"ndof"`

	// IsFake indicates a vertex built from beam-spot constraints rather
	// than reconstructed tracks.
	IsFake bool `json:"isFake"`
}

// ME0Match holds the matching residuals between a muon track and an ME0
// segment in the forward muon system. Present only for muons with an ME0
// segment match.
type ME0Match struct {
	DeltaEta     float64 `json:"deltaEta"`
	DeltaPhi     float64 `json:"deltaPhi"`
	DeltaPhiBend float64 `json:"deltaPhiBend"`
}

// Muon is a reconstructed muon candidate.
//
// PAT-tier files carry the precomputed ID flags (IsLooseID, IsMediumID,
// IsTightID). RECO-tier files carry only the track-level quantities and
// leave the flags false; the RECO filter derives the decisions itself.
type Muon struct {
	// Kinematics
	Pt     float64 `json:"pt"`
	Eta    float64 `json:"eta"`
	Phi    float64 `json:"phi"`
	Charge int     `json:"charge"`

	// Precomputed ID decisions (PAT tier only)
	IsLooseID  bool `json:"isLooseID,omitempty"`
	IsMediumID bool `json:"isMediumID,omitempty"`
	IsTightID  bool `json:"isTightID,omitempty"`

	// Track quality with respect to the primary vertex
	DXY             float64 `json:"dxy"`
	DZ              float64 `json:"dz"`
	ValidPixelHits  int     `json:"validPixelHits"`
	HighPurityTrack bool    `json:"highPurityTrack"`

	// PUPPI no-lepton isolation sums
	ChargedHadronIso float64 `json:"chargedHadronIso"`
	NeutralHadronIso float64 `json:"neutralHadronIso"`
	PhotonIso        float64 `json:"photonIso"`

	// ME0 segment match, nil when no match was found
	ME0 *ME0Match `json:"me0,omitempty"`
}

// P returns the muon momentum magnitude derived from pt and eta.
func (m Muon) P() float64 {
	return m.Pt * math.Cosh(m.Eta)
}

// RelIso returns the relative isolation: the sum of the isolation
// components divided by pt. Returns 0 for non-physical pt.
func (m Muon) RelIso() float64 {
	if m.Pt <= 0 {
		return 0
	}
	return (m.ChargedHadronIso + m.NeutralHadronIso + m.PhotonIso) / m.Pt
}

// SelectedMuon is a muon that passed an ID working point, together with
// its relative isolation at selection time.
type SelectedMuon struct {
	Muon
	RelIso float64 `json:"relIso"`
}

// Event is one collision event. The Loose/Medium/Tight collections are
// empty on input and filled by the muon filter.
type Event struct {
	Run    uint32 `json:"run"`
	Lumi   uint32 `json:"lumi"`
	Number uint64 `json:"event"`

	Vertices []Vertex `json:"vertices,omitempty"`
	Muons    []Muon   `json:"muons,omitempty"`

	LooseMuons  []SelectedMuon `json:"looseMuons,omitempty"`
	MediumMuons []SelectedMuon `json:"mediumMuons,omitempty"`
	TightMuons  []SelectedMuon `json:"tightMuons,omitempty"`
}

// PrimaryVertex returns the first vertex that is not fake and has more
// than four degrees of freedom. The second return value is false when no
// such vertex exists.
func (e *Event) PrimaryVertex() (Vertex, bool) {
	for _, v := range e.Vertices {
		if v.IsFake {
			continue
		}
		if v.NDOF <= 4 {
			continue
		}
		return v, true
	}
	return Vertex{}, false
}
