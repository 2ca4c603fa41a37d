package strip

import (
	"errors"
	"fmt"
	"slices"
)

// MaxStrips bounds the strip index space of a single module (uint16 offsets).
const MaxStrips = 1 << 16

// Cluster is a contiguous run of strip amplitudes on one module.
// Amplitudes[i] is the ADC sample of strip FirstStrip+i.
type Cluster struct {
	FirstStrip uint16
	Amplitudes []uint8
	Merged     bool
}

// Width returns the number of strips in the cluster.
func (c Cluster) Width() int { return len(c.Amplitudes) }

// Strips returns the half-open strip range [first, end) covered by c.
func (c Cluster) Strips() (first, end int) {
	first = int(c.FirstStrip)
	return first, first + len(c.Amplitudes)
}

// Charge is the sum of all amplitude samples.
func (c Cluster) Charge() int {
	sum := 0
	for _, a := range c.Amplitudes {
		sum += int(a)
	}
	return sum
}

// Barycenter returns the charge-weighted strip position, measured at strip
// centres (strip n spans [n, n+1)). A cluster with no charge returns the
// geometric centre.
func (c Cluster) Barycenter() float64 {
	var sumX, sumQ float64
	for i, a := range c.Amplitudes {
		sumX += float64(i) * float64(a)
		sumQ += float64(a)
	}
	if sumQ == 0 {
		return float64(c.FirstStrip) + float64(len(c.Amplitudes))/2
	}
	return float64(c.FirstStrip) + sumX/sumQ + 0.5
}

// Clone returns a copy of c that shares no storage with it.
func (c Cluster) Clone() Cluster {
	c.Amplitudes = slices.Clone(c.Amplitudes)
	return c
}

// Validate reports clusters that cannot have come from a clusterizer.
func (c Cluster) Validate() error {
	if len(c.Amplitudes) == 0 {
		return errors.New("cluster has no amplitudes")
	}
	if _, end := c.Strips(); end > MaxStrips {
		return fmt.Errorf("cluster at strip %d with width %d overruns module (%d strips)",
			c.FirstStrip, len(c.Amplitudes), MaxStrips)
	}
	return nil
}
