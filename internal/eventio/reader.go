// Package eventio reads events for offline tagging runs.
//
// The input is a stream of JSON objects, conventionally one per line:
//
//	{"run":1,"lumi":3,"event":1207,
//	 "collections":{"siStripClusters":[{"det":369120277,"clusters":[{"first_strip":12,"amplitudes":[30,55,40]}]}]},
//	 "truth":{"links":[...],"hits":{"g4SimHitsTrackerHitsTIBLowTof":[...]}}}
//
// "truth" is omitted for events without simulation truth.
package eventio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"

	"github.com/banshee-data/mctag/internal/event"
	"github.com/banshee-data/mctag/internal/strip"
	"github.com/banshee-data/mctag/internal/truth"
)

type wireEvent struct {
	Run         uint32                  `json:"run"`
	Lumi        uint32                  `json:"lumi"`
	Event       uint64                  `json:"event"`
	Collections map[string][]wireDetSet `json:"collections"`
	Truth       *truth.Record           `json:"truth,omitempty"`
}

type wireDetSet struct {
	Det      strip.DetID   `json:"det"`
	Clusters []wireCluster `json:"clusters"`
}

type wireCluster struct {
	FirstStrip uint16 `json:"first_strip"`
	Amplitudes []int  `json:"amplitudes"`
	Merged     bool   `json:"merged,omitempty"`
}

// Reader decodes events one at a time.
type Reader struct {
	dec *json.Decoder
	n   int
}

// NewReader returns a Reader consuming r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: json.NewDecoder(r)}
}

// Next returns the next event, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (*event.Event, error) {
	var w wireEvent
	if err := r.dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode event #%d: %w", r.n+1, err)
	}
	r.n++

	ev := event.New(event.ID{Run: w.Run, Lumi: w.Lumi, Event: w.Event})
	ev.Truth = w.Truth
	for label, sets := range w.Collections {
		v, err := buildCollection(sets)
		if err != nil {
			return nil, fmt.Errorf("event %s collection %q: %w", ev.ID, label, err)
		}
		if err := ev.Put(label, v); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

// Count returns the number of events decoded so far.
func (r *Reader) Count() int { return r.n }

func buildCollection(sets []wireDetSet) (*strip.DetSetVector, error) {
	v := strip.NewDetSetVector()
	clusters, samples := 0, 0
	for _, s := range sets {
		clusters += len(s.Clusters)
		for _, c := range s.Clusters {
			samples += len(c.Amplitudes)
		}
	}
	v.Reserve(clusters, samples)

	seen := make(map[strip.DetID]bool, len(sets))
	var amps []uint8
	for _, s := range sets {
		if seen[s.Det] {
			return nil, fmt.Errorf("module %d listed more than once", s.Det)
		}
		seen[s.Det] = true

		fill := v.StartGroup(s.Det)
		for i, wc := range s.Clusters {
			amps = amps[:0]
			for _, a := range wc.Amplitudes {
				if a < 0 || a > math.MaxUint8 {
					return nil, fmt.Errorf("module %d cluster %d: amplitude %d out of range", s.Det, i, a)
				}
				amps = append(amps, uint8(a))
			}
			c := strip.Cluster{FirstStrip: wc.FirstStrip, Amplitudes: amps, Merged: wc.Merged}
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("module %d cluster %d: %w", s.Det, i, err)
			}
			fill.Push(c)
		}
	}
	return v, nil
}
