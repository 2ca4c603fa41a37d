package tagging

import (
	"slices"

	"github.com/banshee-data/mctag/internal/strip"
)

// Rebuild returns a copy of c with its own amplitude storage and the merge
// flag set to merged. Nothing else about the cluster changes.
//
// Producer does the same copy directly into the output arena through
// strip.Filler.PushRebuilt; Rebuild is the standalone form.
func Rebuild(c strip.Cluster, merged bool) strip.Cluster {
	return strip.Cluster{
		FirstStrip: c.FirstStrip,
		Amplitudes: slices.Clone(c.Amplitudes),
		Merged:     merged,
	}
}

// Tag classifies c and returns its rebuilt, flagged copy.
func (c *Classifier) Tag(cl strip.Cluster, det strip.DetID) (strip.Cluster, Verdict) {
	v := c.Classify(cl, det)
	return Rebuild(cl, v.Merged()), v
}
