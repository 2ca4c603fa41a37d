// Package tagging flags merged strip clusters using simulation truth.
//
// A cluster is merged when its charge comes from two or more simulated
// trajectories. The Producer walks an event's input collection module by
// module, classifies each cluster against the event's truth Associator and
// re-emits it, flag attached, into a new module-grouped collection.
//
// Two association modes exist. ModeDetailed only counts trajectories with
// at least one in-time SimHit on the cluster; ModeSimplified counts every
// linked trajectory regardless of bunch crossing.
//
// Dependency rule: tagging depends on strip, truth and event. It never
// reads configuration files; cmd/ translates internal/config into Config.
package tagging
