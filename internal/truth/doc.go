// Package truth answers which simulated trajectories contributed charge to a
// reconstructed strip cluster.
//
// A Record holds one event's simulation truth: strip-to-trajectory links
// and the SimHit collections they point into. A HitAssociator indexes one
// Record and serves the two association queries of the Associator
// interface. Associators are event-scoped: build one per event and drop it
// when the event is done.
package truth
