package eventio

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/banshee-data/mctag/internal/event"
	"github.com/banshee-data/mctag/internal/strip"
)

// Writer encodes events in the format Reader consumes, one per line.
// Only the selected collections are written; truth is dropped.
type Writer struct {
	enc    *json.Encoder
	labels []string
	n      int
}

// NewWriter returns a Writer emitting the given collection labels. With no
// labels every collection of each event is written.
func NewWriter(w io.Writer, labels ...string) *Writer {
	return &Writer{enc: json.NewEncoder(w), labels: labels}
}

// Write encodes ev. Selected labels absent from ev are skipped.
func (w *Writer) Write(ev *event.Event) error {
	labels := w.labels
	if len(labels) == 0 {
		labels = ev.Labels()
	}

	out := wireEvent{
		Run:         ev.ID.Run,
		Lumi:        ev.ID.Lumi,
		Event:       ev.ID.Event,
		Collections: make(map[string][]wireDetSet, len(labels)),
	}
	for _, label := range labels {
		v, ok := ev.Clusters(label)
		if !ok {
			continue
		}
		out.Collections[label] = wireCollection(v)
	}

	if err := w.enc.Encode(&out); err != nil {
		return fmt.Errorf("encode event %s: %w", ev.ID, err)
	}
	w.n++
	return nil
}

// Count returns the number of events written so far.
func (w *Writer) Count() int { return w.n }

func wireCollection(v *strip.DetSetVector) []wireDetSet {
	sets := make([]wireDetSet, 0, v.Len())
	for det, clusters := range v.All() {
		ws := wireDetSet{Det: det, Clusters: make([]wireCluster, len(clusters))}
		for i, c := range clusters {
			amps := make([]int, len(c.Amplitudes))
			for j, a := range c.Amplitudes {
				amps[j] = int(a)
			}
			ws.Clusters[i] = wireCluster{FirstStrip: c.FirstStrip, Amplitudes: amps, Merged: c.Merged}
		}
		sets = append(sets, ws)
	}
	return sets
}
