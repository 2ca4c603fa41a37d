package truth

import "github.com/banshee-data/mctag/internal/strip"

// EventID identifies the collision a trajectory originated in. Signal and
// in-time pileup have BunchCrossing 0; out-of-time pileup carries the
// bunch-crossing offset relative to the triggered crossing.
type EventID struct {
	Event         uint32 `json:"event"`
	BunchCrossing int16  `json:"bx"`
}

// InTime reports whether the collision is the triggered bunch crossing.
func (e EventID) InTime() bool { return e.BunchCrossing == 0 }

// TrajectoryRef names one simulated trajectory across overlaid events.
// Two refs are the same trajectory iff both fields match.
type TrajectoryRef struct {
	TrackID uint32  `json:"track"`
	Event   EventID `json:"event"`
}

// SimHit is one simulated energy deposit on a module.
type SimHit struct {
	TrackID      uint32      `json:"track"`
	Event        EventID     `json:"event"`
	DetID        strip.DetID `json:"det"`
	EntryStrip   float32     `json:"entry_strip"`
	ExitStrip    float32     `json:"exit_strip"`
	EnergyLoss   float32     `json:"energy_loss"` // GeV
	TOF          float32     `json:"tof"`         // ns
	ParticleType int32       `json:"particle_type"`
}

// Ref returns the trajectory the hit belongs to.
func (h SimHit) Ref() TrajectoryRef {
	return TrajectoryRef{TrackID: h.TrackID, Event: h.Event}
}

// InTime reports whether the hit comes from the triggered bunch crossing.
func (h SimHit) InTime() bool { return h.Event.InTime() }

// HitRef locates a SimHit inside a Record.
type HitRef struct {
	Collection string `json:"collection"`
	Index      int    `json:"index"`
}

// StripLink records that a trajectory deposited charge on one strip.
// Hit, when set, points at the SimHit responsible for the deposit.
type StripLink struct {
	DetID    strip.DetID `json:"det"`
	Channel  uint16      `json:"channel"`
	TrackID  uint32      `json:"track"`
	Event    EventID     `json:"event"`
	Fraction float32     `json:"fraction"`
	Hit      *HitRef     `json:"hit,omitempty"`
}

// Ref returns the trajectory the link belongs to.
func (l StripLink) Ref() TrajectoryRef {
	return TrajectoryRef{TrackID: l.TrackID, Event: l.Event}
}

// Record is the simulation truth of one event.
type Record struct {
	Links []StripLink         `json:"links"`
	Hits  map[string][]SimHit `json:"hits"` // keyed by SimHit collection name
}

// Hit resolves ref, reporting false when it points outside the record.
func (r *Record) Hit(ref HitRef) (SimHit, bool) {
	hits := r.Hits[ref.Collection]
	if ref.Index < 0 || ref.Index >= len(hits) {
		return SimHit{}, false
	}
	return hits[ref.Index], true
}
