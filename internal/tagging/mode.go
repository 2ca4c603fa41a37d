package tagging

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for an unknown association mode.
var ErrInvalidMode = errors.New("invalid association mode")

// Mode selects how a cluster's contributing trajectories are counted.
// It is fixed for the lifetime of a Classifier.
type Mode uint8

const (
	// ModeDetailed counts trajectories with at least one in-time SimHit.
	ModeDetailed Mode = iota
	// ModeSimplified counts every linked trajectory.
	ModeSimplified
)

// ModeFor maps the associate-reco-tracks switch onto a mode: hit-level
// association is only used when reco-track association is off.
func ModeFor(associateRecoTracks bool) Mode {
	if associateRecoTracks {
		return ModeSimplified
	}
	return ModeDetailed
}

// ParseMode parses "detailed" or "simplified" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "detailed":
		return ModeDetailed, nil
	case "simplified":
		return ModeSimplified, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool { return m == ModeDetailed || m == ModeSimplified }

func (m Mode) String() string {
	switch m {
	case ModeDetailed:
		return "detailed"
	case ModeSimplified:
		return "simplified"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}
