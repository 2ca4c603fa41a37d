// Package strip owns the silicon-strip cluster data model.
//
// Responsibilities: module identifiers, the cluster record (first strip,
// amplitude samples, merge flag), and the module-grouped cluster collection
// used for both the producer's input and its tagged output.
// Key types: DetID, Cluster, DetSetVector, Filler.
//
// Dependency rule: strip depends on nothing else in this module. Truth
// association and tagging live in internal/truth and internal/tagging.
package strip
