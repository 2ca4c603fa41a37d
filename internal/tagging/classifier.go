package tagging

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/banshee-data/mctag/internal/strip"
	"github.com/banshee-data/mctag/internal/truth"
)

// Outcome is the result of classifying one cluster.
type Outcome uint8

const (
	// OutcomeUnmerged: fewer than two trajectories counted.
	OutcomeUnmerged Outcome = iota
	// OutcomeMerged: two or more trajectories counted.
	OutcomeMerged
	// OutcomeNoTruth: the event has no truth record, nothing was counted.
	OutcomeNoTruth
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnmerged:
		return "unmerged"
	case OutcomeMerged:
		return "merged"
	case OutcomeNoTruth:
		return "no-truth"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Verdict is the classification of one cluster.
type Verdict struct {
	Outcome Outcome
	// Trajectories is the number of distinct associated trajectories.
	Trajectories int
	// InTimeTrajectories is the number of trajectories that passed the
	// in-time filter. It stays zero on the detailed-mode fast path
	// (Trajectories < 2), where the filter is not evaluated, and equals
	// Trajectories in simplified mode.
	InTimeTrajectories int
}

// Merged is the flag written to the output cluster.
func (v Verdict) Merged() bool { return v.Outcome == OutcomeMerged }

// Classifier decides the merge verdict of clusters within one event.
// It is safe for concurrent use when its Associator is.
type Classifier struct {
	mode  Mode
	assoc truth.Associator
}

// NewClassifier binds a mode to an event's associator. A nil associator,
// including a typed nil, means the event has no truth record.
func NewClassifier(mode Mode, assoc truth.Associator) (*Classifier, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if isNilInterface(assoc) {
		assoc = nil
	}
	return &Classifier{mode: mode, assoc: assoc}, nil
}

// Mode returns the classifier's association mode.
func (c *Classifier) Mode() Mode { return c.mode }

// HasTruth reports whether verdicts are backed by a truth record.
func (c *Classifier) HasTruth() bool { return c.assoc != nil }

// Classify returns the verdict for cluster cl on module det.
func (c *Classifier) Classify(cl strip.Cluster, det strip.DetID) Verdict {
	if c.assoc == nil {
		return Verdict{Outcome: OutcomeNoTruth}
	}
	switch c.mode {
	case ModeSimplified:
		return simplifiedVerdict(c.assoc.AssociateSimple(cl, det))
	default:
		refs, hits := c.assoc.AssociateCluster(cl, det)
		return detailedVerdict(refs, hits)
	}
}

// detailedVerdict counts distinct trajectories with at least one in-time
// hit. With fewer than two trajectories the hits are not inspected.
func detailedVerdict(refs []truth.TrajectoryRef, hits []truth.SimHit) Verdict {
	v := Verdict{Trajectories: countDistinct(refs)}
	if v.Trajectories < 2 {
		return v
	}
	for i, ref := range refs {
		if slices.Contains(refs[:i], ref) {
			continue
		}
		for _, h := range hits {
			if h.InTime() && h.Ref() == ref {
				v.InTimeTrajectories++
				break
			}
		}
	}
	if v.InTimeTrajectories > 1 {
		v.Outcome = OutcomeMerged
	}
	return v
}

func simplifiedVerdict(refs []truth.TrajectoryRef) Verdict {
	n := countDistinct(refs)
	v := Verdict{Trajectories: n, InTimeTrajectories: n}
	if n > 1 {
		v.Outcome = OutcomeMerged
	}
	return v
}

func countDistinct(refs []truth.TrajectoryRef) int {
	n := 0
	for i, ref := range refs {
		if !slices.Contains(refs[:i], ref) {
			n++
		}
	}
	return n
}

// isNilInterface checks if an interface value is nil or holds a nil pointer.
func isNilInterface(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
