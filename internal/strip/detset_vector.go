package strip

import (
	"fmt"
	"iter"
)

// DetSetVector is a collection of clusters grouped by module.
//
// Groups keep the order in which they were started and clusters keep the
// order in which they were pushed. All amplitude samples live in one arena
// owned by the collection, so a pushed cluster never shares storage with
// the cluster it was copied from.
//
// A DetSetVector is not safe for concurrent mutation. Concurrent readers are
// fine once filling has finished.
type DetSetVector struct {
	ids      []DetID
	starts   []int // index of each group's first cluster
	index    map[DetID]int
	clusters []Cluster
	samples  []uint8
}

// NewDetSetVector returns an empty collection.
func NewDetSetVector() *DetSetVector {
	return &DetSetVector{index: make(map[DetID]int)}
}

// Reserve grows capacity so that at least clusters clusters holding samples
// amplitude samples in total can be pushed without reallocating. It never
// shrinks and has no effect on contents.
func (v *DetSetVector) Reserve(clusters, samples int) {
	if cap(v.clusters) < clusters {
		grown := make([]Cluster, len(v.clusters), clusters)
		copy(grown, v.clusters)
		v.clusters = grown
	}
	if cap(v.samples) < samples {
		v.resizeSamples(samples)
	}
}

// ShrinkToFit releases unused capacity so every backing slice is exactly as
// long as its contents.
func (v *DetSetVector) ShrinkToFit() {
	v.ids = exact(v.ids)
	v.starts = exact(v.starts)
	v.clusters = exact(v.clusters)
	if cap(v.samples) != len(v.samples) {
		v.resizeSamples(len(v.samples))
	}
}

// StartGroup opens the group for id and returns a filler appending to it.
// A new group is placed after every existing group. Restarting the most
// recently started group continues it; restarting any earlier group panics
// because it would break the module ordering.
func (v *DetSetVector) StartGroup(id DetID) *Filler {
	if v.index == nil {
		v.index = make(map[DetID]int)
	}
	if g, ok := v.index[id]; ok {
		if g != len(v.ids)-1 {
			panic(fmt.Sprintf("strip: group for module %d already closed", id))
		}
		return &Filler{v: v, group: g}
	}
	v.index[id] = len(v.ids)
	v.ids = append(v.ids, id)
	v.starts = append(v.starts, len(v.clusters))
	return &Filler{v: v, group: len(v.ids) - 1}
}

// Len returns the number of module groups.
func (v *DetSetVector) Len() int { return len(v.ids) }

// DataSize returns the total number of clusters across all groups.
func (v *DetSetVector) DataSize() int { return len(v.clusters) }

// SampleSize returns the total number of amplitude samples across all clusters.
func (v *DetSetVector) SampleSize() int { return len(v.samples) }

// IDs returns the module ids in group order.
func (v *DetSetVector) IDs() []DetID {
	out := make([]DetID, len(v.ids))
	copy(out, v.ids)
	return out
}

// Group returns the module id and clusters of group i.
// The returned slice is clipped; appending to it never writes into the
// collection.
func (v *DetSetVector) Group(i int) (DetID, []Cluster) {
	start, end := v.bounds(i)
	return v.ids[i], v.clusters[start:end:end]
}

// Find returns the clusters grouped under id.
func (v *DetSetVector) Find(id DetID) ([]Cluster, bool) {
	g, ok := v.index[id]
	if !ok {
		return nil, false
	}
	_, clusters := v.Group(g)
	return clusters, true
}

// All iterates the groups in order.
func (v *DetSetVector) All() iter.Seq2[DetID, []Cluster] {
	return func(yield func(DetID, []Cluster) bool) {
		for i := range v.ids {
			if !yield(v.Group(i)) {
				return
			}
		}
	}
}

func (v *DetSetVector) bounds(i int) (start, end int) {
	start = v.starts[i]
	end = len(v.clusters)
	if i+1 < len(v.starts) {
		end = v.starts[i+1]
	}
	return start, end
}

// resizeSamples moves the sample arena to a buffer of capacity n and
// repoints every cluster at its new location.
func (v *DetSetVector) resizeSamples(n int) {
	buf := make([]uint8, len(v.samples), n)
	copy(buf, v.samples)
	v.samples = buf
	off := 0
	for i := range v.clusters {
		w := len(v.clusters[i].Amplitudes)
		v.clusters[i].Amplitudes = v.samples[off : off+w : off+w]
		off += w
	}
}

func exact[T any](s []T) []T {
	if cap(s) == len(s) {
		return s
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Filler appends clusters to one group of a DetSetVector.
// It is only valid while its group is the last one started.
type Filler struct {
	v     *DetSetVector
	group int
}

// ID returns the module id of the filler's group.
func (f *Filler) ID() DetID { return f.v.ids[f.group] }

// Len returns the number of clusters pushed to the group so far.
func (f *Filler) Len() int { return len(f.v.clusters) - f.v.starts[f.group] }

// Push copies c, merge flag included, to the end of the group.
func (f *Filler) Push(c Cluster) { f.PushRebuilt(c, c.Merged) }

// PushRebuilt copies the strip offset and amplitudes of c to the end of the
// group with the merge flag set to merged.
func (f *Filler) PushRebuilt(c Cluster, merged bool) {
	v := f.v
	if f.group != len(v.ids)-1 {
		panic(fmt.Sprintf("strip: filler for module %d used after a later group was started", v.ids[f.group]))
	}
	n := len(c.Amplitudes)
	if cap(v.samples)-len(v.samples) < n {
		v.resizeSamples(max(2*cap(v.samples), len(v.samples)+n, minSampleGrowth))
	}
	off := len(v.samples)
	v.samples = append(v.samples, c.Amplitudes...)
	v.clusters = append(v.clusters, Cluster{
		FirstStrip: c.FirstStrip,
		Amplitudes: v.samples[off : off+n : off+n],
		Merged:     merged,
	})
}

const minSampleGrowth = 64
