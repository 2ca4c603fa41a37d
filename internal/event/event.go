// Package event carries one collision event through the tagger: its named
// cluster collections and, for simulated events, its truth record.
package event

import (
	"errors"
	"fmt"
	"slices"

	"github.com/banshee-data/mctag/internal/strip"
	"github.com/banshee-data/mctag/internal/truth"
)

// ErrDuplicateProduct is returned when a collection label is put twice.
var ErrDuplicateProduct = errors.New("product already present in event")

// ID identifies an event within a dataset.
type ID struct {
	Run   uint32 `json:"run"`
	Lumi  uint32 `json:"lumi"`
	Event uint64 `json:"event"`
}

func (id ID) String() string {
	return fmt.Sprintf("%d:%d:%d", id.Run, id.Lumi, id.Event)
}

// Event holds the products of one event. Truth is nil for real data and for
// simulation produced without truth information.
type Event struct {
	ID    ID
	Truth *truth.Record

	products map[string]*strip.DetSetVector
}

// New returns an empty event.
func New(id ID) *Event {
	return &Event{ID: id, products: make(map[string]*strip.DetSetVector)}
}

// Clusters returns the collection stored under label.
func (e *Event) Clusters(label string) (*strip.DetSetVector, bool) {
	v, ok := e.products[label]
	return v, ok && v != nil
}

// Put stores v under label. Products are write-once.
func (e *Event) Put(label string, v *strip.DetSetVector) error {
	if e.products == nil {
		e.products = make(map[string]*strip.DetSetVector)
	}
	if _, ok := e.products[label]; ok {
		return fmt.Errorf("%w: %q in event %s", ErrDuplicateProduct, label, e.ID)
	}
	e.products[label] = v
	return nil
}

// Labels lists the stored collection labels in sorted order.
func (e *Event) Labels() []string {
	labels := make([]string, 0, len(e.products))
	for l := range e.products {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}
