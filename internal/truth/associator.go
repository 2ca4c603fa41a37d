package truth

import (
	"cmp"
	"slices"

	"github.com/banshee-data/mctag/internal/strip"
)

// Associator answers truth queries for clusters of one event.
// Implementations must be safe for concurrent use once constructed.
type Associator interface {
	// AssociateCluster returns the distinct trajectories that deposited
	// charge on the cluster's strips and the SimHits behind those deposits.
	AssociateCluster(c strip.Cluster, det strip.DetID) ([]TrajectoryRef, []SimHit)

	// AssociateSimple returns only the distinct contributing trajectories.
	AssociateSimple(c strip.Cluster, det strip.DetID) []TrajectoryRef
}

// DefaultROUList names the strip tracker SimHit collections searched for
// detailed associations.
var DefaultROUList = []string{
	"g4SimHitsTrackerHitsTIBLowTof",
	"g4SimHitsTrackerHitsTIBHighTof",
	"g4SimHitsTrackerHitsTIDLowTof",
	"g4SimHitsTrackerHitsTIDHighTof",
	"g4SimHitsTrackerHitsTOBLowTof",
	"g4SimHitsTrackerHitsTOBHighTof",
	"g4SimHitsTrackerHitsTECLowTof",
	"g4SimHitsTrackerHitsTECHighTof",
}

// Config selects what a HitAssociator indexes.
type Config struct {
	// AssociateStrip enables strip link lookups. When false every query
	// returns an empty association.
	AssociateStrip bool
	// LinksOnly skips SimHit indexing. Use it when only AssociateSimple
	// will be queried; AssociateCluster then returns no hits.
	LinksOnly bool
	// ROUList restricts detailed hits to these SimHit collections.
	ROUList []string
}

// DefaultConfig returns a strip-only configuration over DefaultROUList.
func DefaultConfig() Config {
	return Config{
		AssociateStrip: true,
		ROUList:        slices.Clone(DefaultROUList),
	}
}

// HitAssociator serves association queries from one event's Record.
// It is immutable after NewHitAssociator returns.
type HitAssociator struct {
	rec   *Record
	links map[strip.DetID][]StripLink // sorted by channel
	rou   map[string]bool
	// byDet lists, per module, every indexed SimHit for links that carry
	// no direct hit reference.
	byDet map[strip.DetID][]HitRef
}

// NewHitAssociator indexes rec according to cfg. A nil rec yields an
// associator that finds nothing.
func NewHitAssociator(rec *Record, cfg Config) *HitAssociator {
	a := &HitAssociator{
		rec:   rec,
		links: make(map[strip.DetID][]StripLink),
		rou:   make(map[string]bool, len(cfg.ROUList)),
		byDet: make(map[strip.DetID][]HitRef),
	}
	if rec == nil || !cfg.AssociateStrip {
		return a
	}

	for _, l := range rec.Links {
		a.links[l.DetID] = append(a.links[l.DetID], l)
	}
	for det, links := range a.links {
		slices.SortStableFunc(links, func(x, y StripLink) int {
			return cmp.Compare(x.Channel, y.Channel)
		})
		a.links[det] = links
	}

	if cfg.LinksOnly {
		return a
	}
	for _, name := range cfg.ROUList {
		a.rou[name] = true
	}
	// Iterate collections in ROU order so fallback hits come out in a
	// stable order.
	for _, name := range cfg.ROUList {
		for i, h := range rec.Hits[name] {
			a.byDet[h.DetID] = append(a.byDet[h.DetID], HitRef{Collection: name, Index: i})
		}
	}
	return a
}

// AssociateSimple implements Associator.
func (a *HitAssociator) AssociateSimple(c strip.Cluster, det strip.DetID) []TrajectoryRef {
	var refs []TrajectoryRef
	for _, l := range a.clusterLinks(c, det) {
		if ref := l.Ref(); !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
	}
	return refs
}

// AssociateCluster implements Associator. Links with a direct hit reference
// contribute that hit; links without one contribute every hit on the module
// belonging to the same trajectory. Hits outside the ROU list and dangling
// references are skipped.
func (a *HitAssociator) AssociateCluster(c strip.Cluster, det strip.DetID) ([]TrajectoryRef, []SimHit) {
	links := a.clusterLinks(c, det)
	if len(links) == 0 {
		return nil, nil
	}

	var (
		refs []TrajectoryRef
		hits []SimHit
		seen = make(map[HitRef]struct{})
	)
	add := func(hr HitRef) {
		if !a.rou[hr.Collection] {
			return
		}
		if _, dup := seen[hr]; dup {
			return
		}
		h, ok := a.rec.Hit(hr)
		if !ok {
			return
		}
		seen[hr] = struct{}{}
		hits = append(hits, h)
	}

	for _, l := range links {
		ref := l.Ref()
		if !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
		if l.Hit != nil {
			add(*l.Hit)
			continue
		}
		for _, hr := range a.byDet[det] {
			if h, ok := a.rec.Hit(hr); ok && h.Ref() == ref {
				add(hr)
			}
		}
	}
	return refs, hits
}

// clusterLinks returns the links on det whose channel lies in the cluster.
func (a *HitAssociator) clusterLinks(c strip.Cluster, det strip.DetID) []StripLink {
	links := a.links[det]
	if len(links) == 0 {
		return nil
	}
	first, end := c.Strips()
	lo, _ := slices.BinarySearchFunc(links, first, func(l StripLink, ch int) int {
		return cmp.Compare(int(l.Channel), ch)
	})
	hi := lo
	for hi < len(links) && int(links[hi].Channel) < end {
		hi++
	}
	return links[lo:hi]
}

var _ Associator = (*HitAssociator)(nil)
